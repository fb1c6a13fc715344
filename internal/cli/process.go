package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/cache"
	"github.com/ppiankov/claimflow/internal/metrics"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/pipeline"
	"github.com/ppiankov/claimflow/internal/store"
)

var (
	outJSON  string
	outYAML  string
	outMD    string
	noCache  bool
	noFooter bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <file|url|->",
	Short: "Extract, validate and route a single loss notice",
	Long: `Process reads one loss notice (a text or HTML file, an http(s) URL,
or "-" for stdin) and:
- extracts policy, incident, party and vehicle fields
- reports missing mandatory fields and inconsistent values
- recommends a processing route with its reasoning

The result is written as JSON to claim_result_<unix-millis>.json unless
--json names another path ("-" for stdout, "" to skip).

Example:
  claimflow process notice.txt
  claimflow process notice.txt --json result.json --md result.md
  pdftotext notice.pdf - | claimflow process - --json -`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	// Output flags
	processCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default claim_result_<unix-millis>.json)")
	processCmd.Flags().StringVar(&outYAML, "yaml", "", "output YAML path (optional)")
	processCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	processCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Source flags
	processCmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout for URL sources")
	processCmd.Flags().String("ua", "", "HTTP User-Agent for URL sources")
	processCmd.Flags().Int64("max-bytes", 5_000_000, "max document bytes to read")

	// Pipeline flags
	processCmd.Flags().Float64("threshold", model.DefaultFastTrackThreshold, "fast-track damage threshold (exclusive)")
	processCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
	processCmd.Flags().Bool("store", false, "save the result to the claim history database")
	processCmd.Flags().String("db", "", "claim history database path (default ~/.claimflow/claims.db)")
	processCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")

	bindFlags(processCmd.Flags(), map[string]string{
		"source.timeout":               "timeout",
		"source.user_agent":            "ua",
		"source.max_bytes":             "max-bytes",
		"routing.fast_track_threshold": "threshold",
		"store.enabled":                "store",
		"store.path":                   "db",
		"metrics.textfile_path":        "metrics-file",
	})
}

func runProcess(cmd *cobra.Command, args []string) error {
	ref := args[0]
	stderr := cmd.ErrOrStderr()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := *appConfig
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(stderr, "Processing: %s\n", ref)
		fmt.Fprintf(stderr, "Fast-track threshold: $%.2f\n", cfg.Routing.FastTrackThreshold)
		fmt.Fprintf(stderr, "Cache: %v\n\n", cfg.Cache.Enabled)
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.Output.Verbose {
		opts = append(opts, pipeline.WithProgress(stderr))
	}
	if backend := cache.FromConfig(cfg.Cache); backend != nil {
		opts = append(opts, pipeline.WithCache(backend, cfg.Cache.DiskTTL))
	}
	if cfg.Store.Enabled {
		s, err := store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open claim store: %w", err)
		}
		defer func() { _ = s.Close() }()
		opts = append(opts, pipeline.WithStore(s))
	}
	var recorder *metrics.Recorder
	if cfg.Metrics.TextfilePath != "" {
		recorder = metrics.New()
		opts = append(opts, pipeline.WithMetrics(recorder))
	}

	p := pipeline.New(&cfg, opts...)

	res, err := p.Process(ctx, ref)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	renderer.SetStdout(cmd.OutOrStdout())

	jsonPath := outJSON
	if !cmd.Flags().Changed("json") {
		jsonPath = pipeline.DefaultJSONPath(time.Now())
	}
	outputs := []struct {
		kind   string
		path   string
		render func(*model.ClaimResult, string) error
	}{
		{"JSON", jsonPath, renderer.RenderJSON},
		{"YAML", outYAML, renderer.RenderYAML},
		{"Markdown", outMD, renderer.RenderMarkdown},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := out.render(res, out.path); err != nil {
			return fmt.Errorf("render %s: %w", out.kind, err)
		}
		if out.path != pipeline.StdoutPath {
			fmt.Fprintf(stderr, "✓ Wrote %s: %s\n", out.kind, out.path)
		}
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("metrics export failed", zap.Error(err))
		}
	}

	renderer.RenderSummary(stderr, res)
	return nil
}
