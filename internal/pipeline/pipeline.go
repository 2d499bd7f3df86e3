// Package pipeline orchestrates the full run: download and load both provider
// catalogs, reconcile symbols, verify credentials, then resolve and persist
// the at-the-money option pair for the last trading day. Stages run
// sequentially; a degraded stage is recorded, not fatal, except where a later
// stage has a hard data dependency on it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sabarim/atmdata/internal/auth"
	"github.com/sabarim/atmdata/internal/calendar"
	"github.com/sabarim/atmdata/internal/catalog"
	"github.com/sabarim/atmdata/internal/config"
	"github.com/sabarim/atmdata/internal/historical"
	"github.com/sabarim/atmdata/internal/strike"
	"github.com/sabarim/atmdata/internal/symbols"
	"github.com/sabarim/atmdata/internal/upstox"
)

// Stage names, in run order.
const (
	StageUpstoxCatalog = "upstox-catalog"
	StageGrowwCatalog  = "groww-catalog"
	StageReconcile     = "reconcile"
	StageAuth          = "auth"
	StageHistorical    = "historical"
)

// StageResult is one stage's outcome.
type StageResult struct {
	Stage  string
	OK     bool
	Detail string
	Err    error
}

// Summary aggregates a whole run.
type Summary struct {
	RunID     string
	OutputDir string
	Results   []StageResult
}

// Success reports whether every stage completed.
func (s Summary) Success() bool {
	for _, r := range s.Results {
		if !r.OK {
			return false
		}
	}
	return len(s.Results) > 0
}

// String renders the end-of-run report.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", s.RunID)
	for _, r := range s.Results {
		mark := "✓"
		if !r.OK {
			mark = "✗"
		}
		fmt.Fprintf(&b, "  %s %-16s %s\n", mark, r.Stage, r.Detail)
	}
	fmt.Fprintf(&b, "  output: %s\n", s.OutputDir)
	return b.String()
}

// Runner wires the pipeline stages together.
type Runner struct {
	Config config.Config
	Logger *slog.Logger
	// Now is the clock; tests pin it. Nil means time.Now.
	Now func() time.Time
}

// New creates a Runner.
func New(cfg config.Config, logger *slog.Logger) *Runner {
	return &Runner{Config: cfg, Logger: logger}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes every stage and returns the summary. It never returns an
// error: partial failure is expressed in the summary, and the CLI maps it to
// the exit code.
func (r *Runner) Run(ctx context.Context) Summary {
	cfg := r.Config
	summary := Summary{
		RunID:     uuid.NewString(),
		OutputDir: cfg.Historical.OutputDir,
	}
	log := r.Logger.With("run_id", summary.RunID)

	timeout := time.Duration(cfg.Market.RequestTimeout) * time.Second
	downloader := catalog.NewDownloader(cfg.Catalog.UpstoxURL, cfg.Catalog.GrowwURL,
		cfg.Catalog.SnapshotDir, timeout, log)

	// Stage 1: provider A catalog.
	upstoxRecords, res := loadCatalog(ctx, StageUpstoxCatalog, downloader.FetchUpstox, catalog.ParseUpstoxJSON)
	summary.Results = append(summary.Results, res)
	logStage(log, res)

	// Stage 2: provider B catalog.
	growwRecords, res := loadCatalog(ctx, StageGrowwCatalog, downloader.FetchGroww, catalog.ParseGrowwCSV)
	summary.Results = append(summary.Results, res)
	logStage(log, res)

	// Stage 3: reconciliation. Both catalogs get canonical symbols; the two
	// are never merged, cross-provider identity is the canonical symbol.
	normalizer := symbols.NewNormalizer(symbols.DefaultIndexMap())
	var reconciled []catalog.Instrument
	if upstoxRecords != nil || growwRecords != nil {
		var mappedA, unmappedA, mappedB, unmappedB int
		reconciled, mappedA, unmappedA = catalog.Reconcile(upstoxRecords, normalizer.Normalize)
		_, mappedB, unmappedB = catalog.Reconcile(growwRecords, normalizer.Normalize)
		summary.Results = append(summary.Results, StageResult{
			Stage: StageReconcile,
			OK:    true,
			Detail: fmt.Sprintf("upstox %d mapped / %d unmapped, groww %d mapped / %d unmapped",
				mappedA, unmappedA, mappedB, unmappedB),
		})
	} else {
		summary.Results = append(summary.Results, StageResult{
			Stage:  StageReconcile,
			OK:     false,
			Detail: "no catalogs loaded",
		})
	}
	logStage(log, summary.Results[len(summary.Results)-1])

	// Stage 4: credentials.
	store := &auth.Store{Path: cfg.Auth.CredentialsPath}
	creds, err := store.Load()
	switch {
	case err != nil:
		summary.Results = append(summary.Results, StageResult{
			Stage: StageAuth, Detail: "credentials unavailable", Err: err,
		})
	case !creds.TokenValid(r.now()):
		summary.Results = append(summary.Results, StageResult{
			Stage: StageAuth, Detail: "access token missing or expired, run `atmdata login`",
		})
	default:
		summary.Results = append(summary.Results, StageResult{
			Stage: StageAuth, OK: true, Detail: "access token valid through " + creds.ExpiryDate,
		})
	}
	authOK := summary.Results[len(summary.Results)-1].OK
	logStage(log, summary.Results[len(summary.Results)-1])

	// Stage 5: ATM historical data. Hard dependencies: a reconciled catalog
	// and a valid token.
	if reconciled == nil || !authOK {
		summary.Results = append(summary.Results, StageResult{
			Stage:  StageHistorical,
			Detail: "skipped: missing catalog or credentials",
		})
	} else {
		summary.Results = append(summary.Results, r.fetchATMData(ctx, log, summary.RunID, reconciled, creds))
	}
	logStage(log, summary.Results[len(summary.Results)-1])

	return summary
}

// fetchATMData is the derived-state core: trading day → spot → ATM strike →
// CE/PE contracts → candles on disk.
func (r *Runner) fetchATMData(ctx context.Context, log *slog.Logger, runID string, records []catalog.Instrument, creds auth.Credentials) StageResult {
	cfg := r.Config
	fail := func(detail string, err error) StageResult {
		return StageResult{Stage: StageHistorical, Detail: detail, Err: err}
	}

	timeout := time.Duration(cfg.Market.RequestTimeout) * time.Second
	client := upstox.NewClient(cfg.Market.BaseURL, creds.AccessToken, timeout)
	now := r.now()

	// Target expiry precedence: explicit config, then the catalog's nearest
	// expiry, then the weekly-expiry convention.
	expiry := cfg.Market.TargetExpiry
	if expiry == "" {
		if nearest, ok := catalog.NearestExpiry(records, cfg.Market.Underlying, now); ok {
			expiry = nearest
		} else {
			expiry = catalog.NextWeeklyExpiry(now)
			log.Warn("no expiry found in catalog, falling back to weekly convention", "expiry", expiry)
		}
	}

	// Holiday fetch failure degrades to "no known holidays".
	holidays, err := client.Holidays(ctx)
	if err != nil {
		log.Warn("holiday fetch failed, resolving trading day without holidays", "error", err)
		holidays = nil
	}

	resolver := &calendar.Resolver{LookbackDays: cfg.Market.CalendarLookback, Logger: log}
	day, fellBack := resolver.LastTradingDay(now, holidays)
	if fellBack {
		log.Warn("using unverified trading day", "day", day.Format("2006-01-02"))
	}
	date := day.Format("2006-01-02")

	spot, err := client.SpotClose(ctx, cfg.Market.SpotInstrument, date)
	if err != nil {
		return fail("no spot price for "+date, err)
	}

	atm, err := strike.ResolveATM(spot, cfg.Market.StrikeStep)
	if err != nil {
		return fail("ATM resolution failed", err)
	}
	log.Info("ATM resolved", "date", date, "spot", spot, "strike", atm, "expiry", expiry)

	parquetDir := ""
	if cfg.Historical.ParquetEnabled {
		parquetDir = cfg.Historical.ParquetDir
	}
	persister, err := historical.NewPersister(cfg.Historical.OutputDir, parquetDir, runID, log)
	if err != nil {
		return fail("output directory unavailable", err)
	}

	written := 0
	attempted := 0
	for _, side := range []string{"CE", "PE"} {
		attempted++
		contract, err := catalog.FindContract(records, log, cfg.Market.Underlying, expiry, atm, side)
		if err != nil {
			log.Warn("contract not located", "side", side, "strike", atm, "expiry", expiry, "error", err)
			continue
		}
		result := persister.FetchAndPersist(ctx, client, contract, day)
		if result.Status == historical.StatusWritten {
			written++
		} else {
			log.Warn("leg not persisted", "side", side, "status", result.Status.String(), "error", result.Err)
		}
	}

	detail := fmt.Sprintf("%d/%d legs persisted (strike %.0f, %s)", written, attempted, atm, date)
	return StageResult{Stage: StageHistorical, OK: written > 0, Detail: detail}
}

func loadCatalog(ctx context.Context, stage string, fetch func(context.Context) ([]byte, error), parse func([]byte) ([]catalog.Instrument, error)) ([]catalog.Instrument, StageResult) {
	raw, err := fetch(ctx)
	if err != nil {
		return nil, StageResult{Stage: stage, Detail: "download failed", Err: err}
	}
	records, err := parse(raw)
	if err != nil {
		return nil, StageResult{Stage: stage, Detail: "malformed payload", Err: err}
	}
	return records, StageResult{Stage: stage, OK: true, Detail: fmt.Sprintf("%d instruments", len(records))}
}

func logStage(log *slog.Logger, res StageResult) {
	if res.OK {
		log.Info("stage complete", "stage", res.Stage, "detail", res.Detail)
		return
	}
	log.Error("stage failed", "stage", res.Stage, "detail", res.Detail, "error", res.Err)
}
