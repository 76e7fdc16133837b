/*
Package config is the process-level configuration surface, populated by
command-line flags in cmd/server/main.go (the teacher's flag.Int/flag.String
pattern in cmd/server/main.go), covering both the original runtime knobs
(HTTP port, SQLite path) and the UI-constraint surface spec §6 exposes at
GET /timesheets/config.
*/
package config

import "flag"

// Config is every externally-tunable setting the server reads at startup.
type Config struct {
	// Runtime
	Port   int
	DBPath string

	// UI constraint surface (spec §6 GET /timesheets/config). These values
	// are only reported to clients; delivery-hours validation uses the
	// compiled-in timesheet.MinDeliveryHours/MaxDeliveryHours, not these
	// fields.
	HoursMin  float64
	HoursMax  float64
	HoursStep float64

	// WeekStartMondayOnly toggles the Monday-alignment invariant (spec
	// §3 "weekStart must be a Monday") as reported on /timesheets/config.
	// timesheet.New hard-codes the Monday check, so it applies whatever
	// this field says; setting it false changes only the reported value.
	WeekStartMondayOnly bool

	// Currency is an ISO 4217 code reported on /timesheets/config; it
	// does not affect Money arithmetic, which is currency-agnostic.
	Currency string

	// PolicyReloadOnStart, when true, has main.go call
	// PolicyRepository.LoadRows once at startup and Reload the
	// policy.Provider snapshot before serving traffic (spec §4.9).
	PolicyReloadOnStart bool
}

// Defaults mirrors spec §6's documented Config surface defaults.
func Defaults() Config {
	return Config{
		Port:                8080,
		DBPath:              "timesheets.db",
		HoursMin:            0.1,
		HoursMax:            40.0,
		HoursStep:           0.1,
		WeekStartMondayOnly: true,
		Currency:            "AUD",
		PolicyReloadOnStart: true,
	}
}

// Parse populates a Config from args (typically os.Args[1:]) on top of
// Defaults(), the same flag.Int/flag.String/flag.Bool pattern the
// teacher's cmd/server/main.go uses directly in main, lifted into a
// testable function here.
func Parse(args []string) (Config, error) {
	cfg := Defaults()

	fs := flag.NewFlagSet("timesheet-core", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, `SQLite database path (use ":memory:" for an in-memory database)`)
	fs.Float64Var(&cfg.HoursMin, "hours-min", cfg.HoursMin, "minimum delivery hours per timesheet")
	fs.Float64Var(&cfg.HoursMax, "hours-max", cfg.HoursMax, "maximum delivery hours per timesheet")
	fs.Float64Var(&cfg.HoursStep, "hours-step", cfg.HoursStep, "UI step increment for delivery hours")
	fs.BoolVar(&cfg.WeekStartMondayOnly, "week-start-monday-only", cfg.WeekStartMondayOnly, "require week-start dates to be Mondays")
	fs.StringVar(&cfg.Currency, "currency", cfg.Currency, "ISO 4217 currency code reported to clients")
	fs.BoolVar(&cfg.PolicyReloadOnStart, "policy-reload-on-start", cfg.PolicyReloadOnStart, "load policy rows from the database at startup")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
