package core

import (
	"fmt"
	"log"
	"os"
)

// Logger is a tiny leveled wrapper around the standard library logger,
// matching spec §7's propagation policy: validation/policy/workflow errors
// are expected and not logged as errors; AUTHORIZATION_FAILED is logged at
// info; PERSISTENCE_FAILURE and unexpected conditions are logged with a
// trace id.
type Logger struct {
	out *log.Logger
}

// NewLogger creates a Logger writing to stderr with a standard prefix.
func NewLogger(prefix string) *Logger {
	return &Logger{out: log.New(os.Stderr, prefix+" ", log.LstdFlags)}
}

func (l *Logger) Info(msg string, kv ...any) {
	l.out.Println("INFO", msg, fmt.Sprint(kv...))
}

func (l *Logger) Error(msg string, traceID string, err error) {
	l.out.Printf("ERROR trace=%s msg=%s err=%v", traceID, msg, err)
}

func (l *Logger) Warn(msg string, kv ...any) {
	l.out.Println("WARN", msg, fmt.Sprint(kv...))
}
