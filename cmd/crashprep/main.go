// Command crashprep runs one configured preparation pipeline: load a tabular
// crash extract, apply the configured transform steps, write the resulting
// table.
//
// Usage:
//
//	crashprep -config configs/accidents.json
//	crashprep -config configs/accidents.json -validate
//	crashprep -config configs/accidents.json -metrics-backend pushgateway -v
//
// Output written without a path goes to stdout, so the run summary and all
// logging go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"crashprep/internal/config"
	"crashprep/internal/metrics"
	"crashprep/internal/metrics/datadog"
	"crashprep/internal/metrics/prompush"
	"crashprep/internal/pipeline"

	// register the database source drivers with the loader factory.
	_ "crashprep/internal/loader/db/all"
)

// runner is the pipeline surface the CLI drives.
type runner interface {
	Run(ctx context.Context, p config.Pipeline) (*pipeline.Result, error)
}

// appDeps are the process-level seams runMain needs; tests fake them.
type appDeps struct {
	loadConfig  func(path string) (config.Pipeline, error)
	newRunner   func(stdout io.Writer, logger pipeline.Logger) runner
	initMetrics func(ctx context.Context, jobName, backendName, gatewayURL string) (func(), error)
}

// closableBackend is a metrics backend whose shutdown performs a final flush.
type closableBackend interface {
	metrics.Backend
	Close() error
}

// Seams for initMetrics tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (closableBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	newPushgatewayBackend = func(jobName, gatewayURL string) (metrics.Backend, error) {
		return prompush.NewBackend(jobName, gatewayURL)
	}
	setMetricsBackend = metrics.SetBackend
	flushMetrics      = metrics.Flush
	logPrintf         = log.Printf
)

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stdout, os.Stderr, appDeps{
		loadConfig:  config.Load,
		newRunner:   newPipelineRunner,
		initMetrics: initMetrics,
	}))
}

func newPipelineRunner(stdout io.Writer, logger pipeline.Logger) runner {
	return &pipeline.Runner{Logger: logger, Stdout: stdout}
}

// runMain executes the command and returns an exit code: 0 on success, 1 for
// config, metrics, or run failures, 2 for usage errors.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, d appDeps) int {
	fs := flag.NewFlagSet("crashprep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath        = fs.String("config", "", "pipeline config JSON path")
		validateOnly   = fs.Bool("validate", false, "validate the configuration and exit")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: pushgateway, datadog or none (empty reads METRICS_BACKEND)")
		gatewayURL     = fs.String("pushgateway-url", "", "Pushgateway base URL (empty reads PUSHGATEWAY_URL, then http://localhost:9091)")
		verbose        = fs.Bool("v", false, "log run stages to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*cfgPath) == "" {
		fmt.Fprintln(stderr, "usage: crashprep -config <path> [-validate] [-metrics-backend pushgateway|datadog|none] [-v]")
		return 2
	}

	p, err := d.loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	invalid := false
	for _, iss := range config.ValidatePipeline(p) {
		fmt.Fprintln(stderr, iss)
		if iss.Severity == config.SeverityError {
			invalid = true
		}
	}
	if invalid {
		fmt.Fprintf(stderr, "config invalid: %s\n", *cfgPath)
		return 1
	}
	if *validateOnly {
		fmt.Fprintf(stdout, "config valid: %s\n", *cfgPath)
		return 0
	}

	jobName := p.Job
	if jobName == "" {
		jobName = "crashprep"
	}
	backendName := *metricsBackend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	gwURL := *gatewayURL
	if gwURL == "" {
		gwURL = os.Getenv("PUSHGATEWAY_URL")
	}
	if gwURL == "" {
		gwURL = "http://localhost:9091"
	}

	cleanup, err := d.initMetrics(ctx, jobName, backendName, gwURL)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	var logger pipeline.Logger
	if *verbose {
		logger = log.New(stderr, "", log.LstdFlags)
	}

	res, err := d.newRunner(stdout, logger).Run(ctx, p)
	if err != nil {
		fmt.Fprintf(stderr, "run: %v\n", err)
		return 1
	}

	fmt.Fprintf(stderr, "run %s: rows_in=%d rows_out=%d steps=%d elapsed=%s\n",
		res.RunID, res.RowsIn, res.RowsOut, len(res.Steps), res.Elapsed.Truncate(time.Millisecond))
	return 0
}

// initMetrics wires the selected backend into the metrics package. The
// returned cleanup pushes whatever the run buffered; it is always non-nil and
// safe to call.
func initMetrics(ctx context.Context, jobName, backendName, gatewayURL string) (func(), error) {
	nop := func() {}
	switch backendName {
	case "", "none":
		return nop, nil

	case "pushgateway":
		b, err := newPushgatewayBackend(jobName, gatewayURL)
		if err != nil {
			return nop, fmt.Errorf("pushgateway: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := flushMetrics(); err != nil {
				logPrintf("metrics: flush error: %v", err)
			}
		}, nil

	case "datadog":
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    jobName,
			Tags:       datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
			FlushEvery: time.Minute,
		})
		if err != nil {
			return nop, fmt.Errorf("datadog: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
		}, nil

	default:
		return nop, fmt.Errorf("unknown metrics backend %q (want pushgateway|datadog|none)", backendName)
	}
}
