package tradier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Check is the outcome of one connectivity probe.
type Check struct {
	Name    string        `json:"name"`
	Passed  bool          `json:"passed"`
	Latency time.Duration `json:"latency_ms"`
	Detail  string        `json:"detail,omitempty"`
	Err     string        `json:"error,omitempty"`
}

// Report is the outcome of a full diagnostics run against one environment.
type Report struct {
	Environment string    `json:"environment"`
	Checks      []Check   `json:"checks"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	RateLimit   RateLimit `json:"rate_limit"`
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return r.Failed == 0
}

// DiagnosticsConfig tunes a diagnostics run. Symbol defaults to SPY;
// QuoteSymbols defaults to SPY and AAPL.
type DiagnosticsConfig struct {
	Symbol       string
	QuoteSymbols []string
}

func (cfg *DiagnosticsConfig) applyDefaults() {
	if cfg.Symbol == "" {
		cfg.Symbol = "SPY"
	}
	if len(cfg.QuoteSymbols) == 0 {
		cfg.QuoteSymbols = []string{"SPY", "AAPL"}
	}
}

// RunDiagnostics probes the API surface the dashboard depends on: profile,
// quotes, option expirations, and one option chain. Probes run in order and
// an auth failure (401/403) aborts the rest, since every later probe would
// fail the same way. Other failures continue so one flaky endpoint does not
// hide the state of the others.
func RunDiagnostics(ctx context.Context, client *Client, cfg DiagnosticsConfig, log zerolog.Logger) Report {
	cfg.applyDefaults()
	log = log.With().Str("component", "tradier-diagnostics").Str("environment", client.Environment()).Logger()

	report := Report{Environment: client.Environment()}
	aborted := false

	run := func(name string, probe func() (string, error)) {
		if aborted {
			return
		}

		start := time.Now()
		detail, err := probe()
		check := Check{
			Name:    name,
			Latency: time.Since(start),
			Detail:  detail,
		}

		if err != nil {
			check.Err = err.Error()
			if apiErr, ok := err.(*APIError); ok && apiErr.Guidance() != "" {
				check.Err = fmt.Sprintf("%s (%s)", err.Error(), apiErr.Guidance())
			}
			report.Failed++
			log.Warn().Err(err).Str("check", name).Msg("Diagnostic check failed")

			if IsAuthError(err) {
				aborted = true
				log.Error().Msg("Authentication failed, skipping remaining checks")
			}
			report.Checks = append(report.Checks, check)
			return
		}

		check.Passed = true
		report.Passed++
		log.Info().Str("check", name).Dur("latency", check.Latency).Msg("Diagnostic check passed")
		report.Checks = append(report.Checks, check)
	}

	run("user profile", func() (string, error) {
		profile, err := client.GetProfile(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s, %d account(s)", profile.Name, len(profile.Accounts)), nil
	})

	run("market quotes", func() (string, error) {
		quotes, err := client.GetQuotes(ctx, cfg.QuoteSymbols)
		if err != nil {
			return "", err
		}
		if len(quotes) == 0 {
			return "", fmt.Errorf("no quotes returned for %v", cfg.QuoteSymbols)
		}
		return fmt.Sprintf("%d quote(s), %s last %.2f", len(quotes), quotes[0].Symbol, quotes[0].Last), nil
	})

	var nearestExpiration string
	run("option expirations", func() (string, error) {
		expirations, err := client.GetOptionExpirations(ctx, cfg.Symbol)
		if err != nil {
			return "", err
		}
		if len(expirations) == 0 {
			return "", fmt.Errorf("no expirations listed for %s", cfg.Symbol)
		}
		nearestExpiration = expirations[0]
		return fmt.Sprintf("%d expiration(s), nearest %s", len(expirations), nearestExpiration), nil
	})

	run("option chain", func() (string, error) {
		if nearestExpiration == "" {
			return "", fmt.Errorf("no expiration available to fetch a chain for")
		}
		chain, err := client.GetOptionChain(ctx, cfg.Symbol, nearestExpiration)
		if err != nil {
			return "", err
		}
		if len(chain) == 0 {
			return "", fmt.Errorf("empty chain for %s %s", cfg.Symbol, nearestExpiration)
		}
		return fmt.Sprintf("%d contract(s) for %s %s", len(chain), cfg.Symbol, nearestExpiration), nil
	})

	report.RateLimit = client.LastRateLimit()
	return report
}
