/*
main.go - application entry point for the timesheet approval and payroll
engine, adapted from the teacher's startup sequence (parse flags, open
the store, build the handler, wire the router, serve with graceful
shutdown) but wiring policy/calculator/lifecycle/approvalsvc/query
instead of a single handler over one store.

STARTUP SEQUENCE:
  1. Parse command-line flags into a config.Config.
  2. Open the SQLite store.
  3. Build the policy.Provider (compiled-in defaults, optionally reloaded
     from the store per config.PolicyReloadOnStart).
  4. Construct lifecycle/approvalsvc/query against the store and
     provider.
  5. Build the transport/http router and serve, with the teacher's
     SIGINT/SIGTERM 30s-timeout graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuspay/timesheet-core/approvalsvc"
	"github.com/campuspay/timesheet-core/calculator"
	"github.com/campuspay/timesheet-core/config"
	"github.com/campuspay/timesheet-core/core"
	"github.com/campuspay/timesheet-core/lifecycle"
	"github.com/campuspay/timesheet-core/policy"
	"github.com/campuspay/timesheet-core/query"
	"github.com/campuspay/timesheet-core/store"
	"github.com/campuspay/timesheet-core/store/sqlite"
	transporthttp "github.com/campuspay/timesheet-core/transport/http"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer st.Close()

	provider, err := policy.NewProvider(policy.DefaultRows())
	if err != nil {
		log.Fatalf("failed to build policy provider: %v", err)
	}
	if cfg.PolicyReloadOnStart {
		rows, err := st.LoadRows(context.Background())
		if err != nil {
			log.Printf("warning: failed to load policy rows from database: %v", err)
		} else if len(rows) > 0 {
			if err := provider.Reload(rows); err != nil {
				log.Printf("warning: failed to reload policy snapshot: %v", err)
			}
		}
	}

	calc := calculator.New(provider)
	clock := store.SystemClock{}
	logger := core.NewLogger("timesheet-core")

	lc := lifecycle.New(st, st, calc, clock, logger)
	ap := approvalsvc.New(st, st, clock, logger)
	q := query.New(st, st, st, clock)

	handler := transporthttp.NewHandler(lc, ap, q, cfg, logger)
	router := transporthttp.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("timesheet-core listening on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server stopped")
}
