package samplegen

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/robusta/pkg/logger"
)

// SetupLogging logs to stdout and to logFile. An empty logFile gets a
// timestamped name; "-" logs to stdout only.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if logFile == "-" {
		return nopCloser{}, logger.Init(logger.WithLevel(level))
	}
	if logFile == "" {
		logFile = "sample_run_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	if err := logger.Init(logger.WithLevel(level), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	os.Stdout.WriteString(`Robusta Sample Generator
========================

Submits generated measurement sets to a running grading service, waits for
each assessment and checks its grade against a local evaluation.

Usage:
  go run ./cmd/sample-gen [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -count int          Measurement sets to generate (default 1000)
  -duplicates int     Sets to submit a second time (default 0)
  -workers int        Concurrent workers (default CPU cores * 2)
  -seed uint          Generator seed (default: current time)
  -timeout duration   HTTP request timeout (default 10s)
  -retries uint       Retries per submission on 429/5xx (default 5)
  -poll duration      Poll interval while waiting for assessments (default 100ms)
  -wait duration      Maximum wait per assessment (default 30s)
  -top int            Entries to fetch from /assessments/top (default 20)
  -output string      Write generated sets to this JSON file
  -log string         Log file ("-" for stdout only)
  -verbose            Enable debug logging
  -help               Show this help message

Examples:
  go run ./cmd/sample-gen -count 5000 -workers 32
  go run ./cmd/sample-gen -seed 42 -duplicates 100 -output sets.json
`)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
