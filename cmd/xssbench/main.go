// Command xssbench runs the adversarial sanitizer benchmark matrix: every
// loaded vector, expanded across the requested sanitizers and contexts,
// executed against real browser engines, aggregated into a run artifact.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/adapter/bluemonday"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/harness"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/report"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/scheduler"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/telemetry"
	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

var (
	verbose        bool
	vectorPaths    []string
	sanitizerIDs   []string
	engines        []string
	workers        int
	timeoutMs      int
	jsonOut        string
	listSanitizers bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xssbench",
	Short: "Adversarial XSS sanitizer benchmark harness",
	Long: `xssbench runs hostile HTML vectors through sanitizer adapters, injects
the sanitized output into an instrumented browser document, and classifies
what actually happens: script execution, external leaks, or a clean pass.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := telemetry.NewLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBenchmark,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringSliceVar(&vectorPaths, "vectors", nil, "one or more vector file paths")
	rootCmd.Flags().StringSliceVar(&sanitizerIDs, "sanitizers", []string{"noop"}, "subset of sanitizer adapter ids to run")
	rootCmd.Flags().StringSliceVar(&engines, "browser", []string{"chromium"}, "browser engines to run against (chromium|firefox|webkit)")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "worker parallelism per engine")
	rootCmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "per-case timeout override in milliseconds (0 uses the adaptive heuristic)")
	rootCmd.Flags().StringVar(&jsonOut, "json-out", "", "directory or file path to write the run artifact to")
	rootCmd.Flags().BoolVar(&listSanitizers, "list-sanitizers", false, "enumerate adapters importable in this environment and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// availableAdapters returns every adapter this build knows how to
// construct, keyed by id.
func availableAdapters() scheduler.Adapters {
	return scheduler.Adapters{
		"noop":       adapter.NewNoop(),
		"bluemonday": bluemonday.New(adapter.DefaultPolicy()),
	}
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	all := availableAdapters()

	if listSanitizers {
		ids := make([]string, 0, len(all))
		for id := range all {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if len(vectorPaths) == 0 {
		return fmt.Errorf("--vectors is required")
	}

	selected := scheduler.Adapters{}
	for _, id := range sanitizerIDs {
		a, ok := all[id]
		if !ok {
			return fmt.Errorf("unknown sanitizer id %q (try --list-sanitizers)", id)
		}
		selected[id] = a
	}

	vectors, err := vector.LoadFiles(vectorPaths)
	if err != nil {
		return fmt.Errorf("load vectors: %w", err)
	}
	logger.Info("loaded vectors", zap.Int("count", len(vectors)))

	sanitizerList := make([]string, 0, len(selected))
	for id := range selected {
		sanitizerList = append(sanitizerList, id)
	}
	sort.Strings(sanitizerList)

	var cases []vector.CaseInput
	for _, v := range vectors {
		cases = append(cases, v.Expand(sanitizerList)...)
	}
	logger.Info("expanded cases", zap.Int("count", len(cases)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	pool := harness.NewEnginePool()
	defer func() { _ = pool.Shutdown() }()

	cfg := scheduler.Config{
		Workers:       workers,
		Engines:       engines,
		TimeoutMs:     timeoutMs,
		EngineConfigs: make(map[string]harness.EngineConfig),
	}
	for _, e := range engines {
		cfg.EngineConfigs[e] = harness.EngineConfig{Engine: e, Headless: true}
	}

	sched := scheduler.New(cfg, selected, pool)

	startedAt := time.Now().UTC()
	if err := sched.Run(ctx, cases); err != nil {
		return fmt.Errorf("scheduler run: %w", err)
	}
	finishedAt := time.Now().UTC()

	results := sched.Results()
	logger.Info("run complete", zap.Int("cases", len(results)))

	if jsonOut != "" {
		for _, engine := range engines {
			version, verr := pool.Version(engine)
			if verr != nil {
				version = "unknown"
			}
			filtered := make([]scheduler.CaseResult, 0, len(results))
			for _, r := range results {
				if r.Engine == engine {
					filtered = append(filtered, r)
				}
			}
			artifact := report.Build(engine, version, startedAt, finishedAt, filtered)
			if err := report.Write(artifact, jsonOut); err != nil {
				return fmt.Errorf("write run artifact: %w", err)
			}
		}
	}

	printSummary(results)
	return nil
}

func printSummary(results []scheduler.CaseResult) {
	bySanitizer := map[string]report.Totals{}
	for _, r := range results {
		t := bySanitizer[r.Input.SanitizerID]
		switch r.Outcome {
		case "pass":
			t.Pass++
		case "xss":
			t.XSS++
		case "external":
			t.External++
		case "skip":
			t.Skip++
		case "error":
			t.Error++
		}
		if r.Lossy {
			t.Lossy++
		}
		bySanitizer[r.Input.SanitizerID] = t
	}

	ids := make([]string, 0, len(bySanitizer))
	for id := range bySanitizer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println(strings.Repeat("-", 60))
	for _, id := range ids {
		t := bySanitizer[id]
		fmt.Printf("%-16s pass=%-5d xss=%-5d external=%-5d skip=%-5d error=%-5d lossy=%-5d\n",
			id, t.Pass, t.XSS, t.External, t.Skip, t.Error, t.Lossy)
	}
}
