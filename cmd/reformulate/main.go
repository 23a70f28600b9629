// Command reformulate runs the reformulation pipeline over a directory of
// parsed filings and prints the per-filing analyses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"finmodeling/pkg/core/analysis"
	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/config"
	"finmodeling/pkg/core/period"
	"finmodeling/pkg/core/projection"
	"finmodeling/pkg/core/report"
	"finmodeling/pkg/core/store"
	"finmodeling/pkg/core/xbrl"
)

type options struct {
	dir              string
	cfgPath          string
	company          string
	format           string
	workers          int
	forecast         int
	save             bool
	disclosure       string
	disclosurePeriod string
}

func main() {
	var o options
	flag.StringVar(&o.dir, "dir", "", "directory of parsed filing JSON/HJSON files")
	flag.StringVar(&o.cfgPath, "config", "", "YAML or TOML config file")
	flag.StringVar(&o.company, "company", "", "company name (defaults to the directory name)")
	flag.StringVar(&o.format, "format", report.FormatMarkdown, "output format: md or html")
	flag.IntVar(&o.workers, "workers", analysis.DefaultWorkers, "concurrent filing loads")
	flag.IntVar(&o.forecast, "forecast", 0, "number of quarters to forecast")
	flag.BoolVar(&o.save, "save", false, "persist the analysis run to postgres")
	flag.StringVar(&o.disclosure, "disclosure", "", "also print disclosures whose title matches this regexp")
	flag.StringVar(&o.disclosurePeriod, "disclosure-period", "yearly", "disclosure columns: yearly or quarterly")
	flag.Parse()

	if o.dir == "" {
		fmt.Fprintln(os.Stderr, "usage: reformulate -dir <filings> [-config file] [-format md|html] [-forecast n] [-disclosure regexp] [-save]")
		os.Exit(2)
	}
	if o.company == "" {
		o.company = filepath.Base(filepath.Clean(o.dir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o); err != nil {
		applog.L().Error().Err(err).Msg("[reformulate] failed")
		os.Exit(1)
	}
}

func disclosureKind(s string) (period.Kind, error) {
	switch s {
	case "yearly", "annual":
		return period.KindAnnual, nil
	case "quarterly":
		return period.KindQuarterly, nil
	}
	return "", fmt.Errorf("unknown disclosure period %q", s)
}

func run(ctx context.Context, o options) error {
	var paths []string
	if o.cfgPath != "" {
		paths = append(paths, o.cfgPath)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	applog.Init(cfg.Logging)

	cache, closeCache, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer closeCache()

	opts, err := cfg.StatementOptions(cache)
	if err != nil {
		return err
	}

	files, err := xbrl.FilingPaths(o.dir)
	if err != nil {
		return err
	}
	parsed, err := analysis.LoadFiles(ctx, files, o.workers)
	if err != nil {
		return err
	}
	applog.L().Info().Str("dir", o.dir).Int("filings", len(parsed)).Msg("[reformulate] filings loaded")

	filings := analysis.FromParsed(o.company, parsed, opts)
	isa, err := filings.IncomeStatementAnalyses(ctx)
	if err != nil {
		return err
	}
	bsa, err := filings.BalanceSheetAnalyses(ctx)
	if err != nil {
		return err
	}
	cfa, err := filings.CashFlowStatementAnalyses(ctx)
	if err != nil {
		return err
	}
	out := []*calc.Summary{isa, bsa, cfa}

	if o.disclosure != "" {
		kind, err := disclosureKind(o.disclosurePeriod)
		if err != nil {
			return err
		}
		titles, err := calc.NewPatternSet(o.disclosure)
		if err != nil {
			return err
		}
		ds, err := filings.Disclosures(titles, kind)
		if err != nil {
			return err
		}
		out = append(out, ds)
	}

	if o.forecast > 0 {
		policy := projection.ChoosePolicy(isa)
		is, bs, err := filings.Latest(ctx)
		if err != nil {
			return err
		}
		f, err := projection.Forecast(policy, is, bs, o.forecast)
		if err != nil {
			return err
		}
		out = append(out, f.Summary())
	}

	if err := report.Render(os.Stdout, o.format, out...); err != nil {
		return err
	}

	if o.save {
		return saveRun(ctx, cfg, filings)
	}
	return nil
}

func saveRun(ctx context.Context, cfg *config.Config, filings *analysis.CompanyFilings) error {
	// The postgres cache backend may already have opened the pool.
	if err := store.InitDB(ctx, cfg.Cache.DatabaseURL); err != nil {
		return err
	}
	if store.GetPool() == nil {
		return fmt.Errorf("no database pool for saving runs")
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, store.GetPool()); err != nil {
		return err
	}

	res, err := filings.Analyze(ctx)
	if err != nil {
		return err
	}
	if err := store.NewAnalysisRepo(store.GetPool()).Save(ctx, res.RunID, res.Company, res); err != nil {
		return err
	}
	applog.L().Info().Str("run_id", res.RunID).Msg("[reformulate] analysis saved")
	return nil
}
