package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/robusta/internal/samplegen"
)

// Default configuration constants.
const (
	defaultCount        = 1000
	defaultTopN         = 20
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultRetries      = 5
	defaultPollInterval = 100 * time.Millisecond
	defaultPollTimeout  = 30 * time.Second
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		count      = flag.Int("count", defaultCount, "Measurement sets to generate")
		duplicates = flag.Int("duplicates", 0, "Sets to submit a second time")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent workers")
		seed       = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed") //nolint:gosec // non-negative
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		retries    = flag.Uint64("retries", defaultRetries, "Retries per submission on 429/5xx")
		poll       = flag.Duration("poll", defaultPollInterval, "Poll interval while waiting for assessments")
		wait       = flag.Duration("wait", defaultPollTimeout, "Maximum wait per assessment")
		topN       = flag.Int("top", defaultTopN, "Entries to fetch from /assessments/top")
		outputFile = flag.String("output", "", "Write generated sets to this JSON file")
		logFile    = flag.String("log", "", "Log file (\"-\" for stdout only)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		samplegen.ShowHelp()
		return
	}

	cfg := &samplegen.Config{
		BaseURL:      *baseURL,
		Count:        *count,
		Duplicates:   *duplicates,
		Workers:      max(*workers, 1),
		Seed:         *seed,
		Timeout:      *timeout,
		MaxRetries:   *retries,
		PollInterval: *poll,
		PollTimeout:  *wait,
		TopN:         *topN,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	}
	if err := run(cfg, *logFile); err != nil {
		os.Stderr.WriteString("sample run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(cfg *samplegen.Config, logFile string) error {
	closer, err := samplegen.SetupLogging(logFile, cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err = samplegen.Run(ctx, cfg)
	return err
}
