// Command tradiercheck probes the Tradier API and prints a pass/fail summary
// for each environment. It exits non-zero when any check fails, so it works
// as a pre-deploy smoke test for tokens and market-data permissions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aristath/vantage/internal/clients/tradier"
	"github.com/aristath/vantage/internal/config"
	"github.com/aristath/vantage/pkg/logger"
)

func main() {
	env := flag.String("env", "", "environment to check: sandbox, production or both (default: configured TRADIER_ENV)")
	symbol := flag.String("symbol", "", "underlying for the options probes (default SPY)")
	timeout := flag.Int("timeout", 0, "request timeout in seconds (default: configured TRADIER_TIMEOUT_SECONDS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The printed summary is the output; the logger only surfaces failures.
	log := logger.New(logger.Config{Level: "warn", Pretty: true})

	environments, err := resolveEnvironments(*env, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	timeoutSeconds := cfg.Tradier.TimeoutSeconds
	if *timeout > 0 {
		timeoutSeconds = *timeout
	}

	failed := false
	for _, environment := range environments {
		token := tokenFor(cfg, environment)
		if token == "" {
			fmt.Fprintf(os.Stderr, "No token configured for %s (set %s)\n", environment, tokenVar(environment))
			failed = true
			continue
		}

		baseURL := tradier.SandboxBaseURL
		if environment == "production" {
			baseURL = tradier.ProductionBaseURL
		}
		client := tradier.New(tradier.Config{
			BaseURL: baseURL,
			Token:   token,
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		}, log)

		report := tradier.RunDiagnostics(context.Background(), client, tradier.DiagnosticsConfig{Symbol: *symbol}, log)
		printReport(report)
		if !report.OK() {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func resolveEnvironments(flagValue string, cfg *config.Config) ([]string, error) {
	switch flagValue {
	case "":
		return []string{cfg.Tradier.Env}, nil
	case "sandbox", "production":
		return []string{flagValue}, nil
	case "both":
		return []string{"sandbox", "production"}, nil
	default:
		return nil, fmt.Errorf("invalid -env %q: want sandbox, production or both", flagValue)
	}
}

func tokenFor(cfg *config.Config, environment string) string {
	if environment == "production" {
		return cfg.Tradier.Token
	}
	return cfg.Tradier.SandboxToken
}

func tokenVar(environment string) string {
	if environment == "production" {
		return "TRADIER_TOKEN"
	}
	return "TRADIER_SANDBOX_TOKEN"
}

func printReport(r tradier.Report) {
	fmt.Printf("\nTradier connectivity: %s\n", r.Environment)
	for _, check := range r.Checks {
		status, detail := "ok  ", check.Detail
		if !check.Passed {
			status, detail = "FAIL", check.Err
		}
		fmt.Printf("  %s  %-18s %5dms  %s\n", status, check.Name, check.Latency.Milliseconds(), detail)
	}
	if r.RateLimit.Allowed > 0 {
		fmt.Printf("  rate limit: %d/%d used, window resets %s\n",
			r.RateLimit.Used, r.RateLimit.Allowed, r.RateLimit.Expiry.Format(time.Kitchen))
	}
	fmt.Printf("  %d passed, %d failed\n", r.Passed, r.Failed)
}
