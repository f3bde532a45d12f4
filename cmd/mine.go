package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/winnerlabs/leadminer/internal/export"
	"github.com/winnerlabs/leadminer/internal/extract"
	"github.com/winnerlabs/leadminer/internal/model"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Run a lead extraction for a niche and location",
	Long: `Searches for businesses matching a niche in a location, parses the
results into structured leads, deduplicates and scores them, and stores the
run. Deep scans run two search strategies; express runs one.

Examples:
  # Express scan
  leadminer mine --niche "padaria artesanal" --location "São Paulo, SP"

  # Deep scan with CSV export
  leadminer mine --niche "açaí" --location "Fortaleza, CE" --deep --csv leads.csv

  # All strategies in flight at once
  leadminer mine --niche "pet shop" --location "Curitiba, PR" --deep --parallel`,
	RunE: runMine,
}

func init() {
	f := mineCmd.Flags()
	f.String("niche", "", "business niche to search for (required)")
	f.String("location", "", "city/region to search in (required)")
	f.Bool("deep", false, "run the two-strategy deep scan")
	f.Bool("parallel", false, "run all strategies concurrently")
	f.String("profile", "", "scoring profile name (default from config)")
	f.String("csv", "", "write results to this CSV file ('auto' derives the name)")
	f.String("xlsx", "", "write results to this XLSX file ('auto' derives the name)")
	f.Float64("lat", 0, "optional latitude hint")
	f.Float64("lng", 0, "optional longitude hint")
	mineCmd.MarkFlagRequired("niche")
	mineCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(mineCmd)
}

func runMine(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate("mine"); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := cmd.Flags()
	niche, _ := f.GetString("niche")
	location, _ := f.GetString("location")
	deep, _ := f.GetBool("deep")
	parallel, _ := f.GetBool("parallel")
	profileName, _ := f.GetString("profile")

	query := model.Query{Niche: niche, Location: location}
	if f.Changed("lat") && f.Changed("lng") {
		lat, _ := f.GetFloat64("lat")
		lng, _ := f.GetFloat64("lng")
		query.Lat, query.Lng = &lat, &lng
	}

	env, err := initPipeline(ctx, profileName)
	if err != nil {
		return err
	}
	defer env.Close()

	strategies := extract.Strategies(deep)
	run, err := env.Store.CreateRun(ctx, query, strategies)
	if err != nil {
		return err
	}
	zap.L().Info("run started",
		zap.String("run_id", run.ID),
		zap.String("niche", niche),
		zap.String("location", location),
		zap.Int("strategies", len(strategies)),
		zap.Bool("parallel", parallel),
	)

	var result *model.Result
	if parallel {
		result, err = env.Runner.RunParallel(ctx, query, strategies)
	} else {
		result, err = env.Runner.RunSequential(ctx, query, strategies, func(done, total int, leads []model.Lead) {
			fmt.Fprintf(cmd.OutOrStdout(), "lote %d/%d: %d leads únicos\n", done, total, len(leads))
		})
	}
	if err != nil {
		_ = env.Store.CompleteRun(ctx, run.ID, model.RunStatusFailed, 0)
		return eris.Wrap(err, "mine: run aborted")
	}

	status := runStatus(result, strategies)
	if err := env.Store.SaveLeads(ctx, run.ID, result.Leads); err != nil {
		return err
	}
	if err := env.Store.CompleteRun(ctx, run.ID, status, len(result.Leads)); err != nil {
		return err
	}

	printResult(cmd, run.ID, result)

	if path, _ := f.GetString("csv"); path != "" {
		out := resolveExportPath(path, niche, "csv")
		if err := writeExportFile(out, result.Leads, niche, export.WriteCSV); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "CSV: %s\n", out)
	}
	if path, _ := f.GetString("xlsx"); path != "" {
		out := resolveExportPath(path, niche, "xlsx")
		if err := writeExportFile(out, result.Leads, niche, export.WriteXLSX); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "XLSX: %s\n", out)
	}

	return nil
}

// runStatus derives the persisted status: failed when every strategy
// errored, empty when searches ran but nothing parsed.
func runStatus(result *model.Result, strategies []string) model.RunStatus {
	if len(result.Failures) == len(strategies) {
		return model.RunStatusFailed
	}
	if len(result.Leads) == 0 {
		return model.RunStatusEmpty
	}
	return model.RunStatusComplete
}

func printResult(cmd *cobra.Command, runID string, result *model.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nrun %s: %d leads\n", runID, len(result.Leads))
	for _, l := range result.Leads {
		fmt.Fprintf(out, "  [%3d] %s", l.Score, l.Name)
		if model.Has(l.Phone) {
			fmt.Fprintf(out, "  %s", l.Phone)
		}
		fmt.Fprintln(out)
	}
	for _, fail := range result.Failures {
		fmt.Fprintf(out, "  estratégia falhou: %s (%s)\n", fail.Strategy, fail.Error)
	}
}

// resolveExportPath expands the "auto" placeholder into the conventional
// dated filename under the configured export dir.
func resolveExportPath(path, niche, ext string) string {
	if path != "auto" {
		return path
	}
	return filepath.Join(cfg.Export.Dir, export.Filename(niche, ext, time.Now()))
}

func writeExportFile(path string, leads []model.Lead, niche string, write func(w io.Writer, leads []model.Lead, niche string) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "mine: create %s", path)
	}
	defer fh.Close()
	return write(fh, leads, niche)
}
