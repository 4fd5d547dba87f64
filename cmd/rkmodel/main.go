// Command rkmodel runs an R-K pipeline over a file of records, stores the
// resulting models and prints a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/rk-toolkit/pkg/config"
	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/metrics"
	"github.com/dd0wney/rk-toolkit/pkg/parallel"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
	"github.com/dd0wney/rk-toolkit/pkg/rkio"
)

func main() {
	var (
		configPath  = flag.String("config", "pipeline.yaml", "Pipeline configuration file")
		recordsPath = flag.String("records", "", "Records file (JSON array or JSON lines)")
		outPath     = flag.String("out", "", "Model file to write (overrides output.path)")
		maxColumns  = flag.Int("matrix", 8, "Number of models shown in the similarity matrix")
		noTree      = flag.Bool("no-tree", false, "Do not print the tree of the first model")
		workers     = flag.Int("workers", 0, "Pipeline workers (0 uses GOMAXPROCS)")
	)
	flag.Parse()

	if *recordsPath == "" {
		log.Fatal("--records is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outPath != "" {
		cfg.Output.Path = *outPath
	}

	level := logging.InfoLevel
	if cfg.LogLevel != "" {
		level = logging.ParseLevel(cfg.LogLevel)
	}
	logger := logging.NewJSONLogger(os.Stderr, level)
	logging.SetDefaultLogger(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *recordsPath, logger, options{maxColumns: *maxColumns, tree: !*noTree, workers: *workers}); err != nil {
		log.Fatalf("rkmodel: %v", err)
	}
}

type options struct {
	maxColumns int
	tree       bool
	workers    int
}

func run(ctx context.Context, cfg *config.Config, recordsPath string, logger logging.Logger, opts options) error {
	reg := metrics.DefaultRegistry()
	p, err := cfg.Build(logger, reg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	records, err := readRecordsFile(recordsPath)
	if err != nil {
		return err
	}
	logger.Info("records loaded", logging.Path(recordsPath), logging.Count(len(records)))

	pool := parallel.NewWorkerPool(opts.workers, logger)
	models, err := p.TransformAll(ctx, pool, records)
	pool.Close()
	if err != nil {
		return err
	}

	writers, err := openWriters(ctx, cfg.Output, logger, reg)
	if err != nil {
		return err
	}
	written, err := writeModels(ctx, writers, models)
	for _, w := range writers {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}
	if len(writers) > 0 {
		logger.Info("models written", logging.Count(written))
	}

	out := os.Stdout
	if opts.tree && len(models) > 0 {
		fmt.Fprintln(out, renderModel(models[0]))
	}
	if len(models) > 1 {
		summary, err := renderSummary(models, graph.DefaultDistanceOptions(), opts.maxColumns)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, summary)
	}
	return nil
}

func openWriters(ctx context.Context, out config.OutputConfig, logger logging.Logger, reg *metrics.Registry) ([]rkio.Writer, error) {
	var writers []rkio.Writer
	ioOpts := []rkio.Option{rkio.WithLogger(logger), rkio.WithMetrics(reg)}

	if out.Path != "" {
		w, err := rkio.CreateFile(out.Path, ioOpts...)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	if out.S3 != nil {
		client, err := rkio.NewS3Client(ctx, *out.S3)
		if err != nil {
			for _, w := range writers {
				_ = w.Close()
			}
			return nil, err
		}
		writers = append(writers, rkio.NewS3Writer(client, out.S3.Bucket, out.S3.Prefix, ioOpts...))
	}
	return writers, nil
}

// writeModels writes every model to every writer and returns how many
// models were accepted by all of them.
func writeModels(ctx context.Context, writers []rkio.Writer, models []*pipeline.Model) (int, error) {
	if len(writers) == 0 {
		return 0, nil
	}
	written := 0
	for _, m := range models {
		all := true
		for _, w := range writers {
			ok, err := w.Write(ctx, m)
			if err != nil {
				return written, err
			}
			all = all && ok
		}
		if all {
			written++
		}
	}
	return written, nil
}
