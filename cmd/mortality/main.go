// Command mortality runs the county mortality pipeline end-to-end. It loads
// the pipeline config, optionally initializes a metrics backend, and executes
// the batch run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"mortality/internal/config"
	"mortality/internal/metrics"
	"mortality/internal/metrics/datadog"
	"mortality/internal/metrics/prompush"
	"mortality/internal/pipeline"

	// register all backends with the storage factory.
	// config specifies which to use but we build in support for all of them.
	_ "mortality/internal/storage/all"
)

func main() {
	var (
		cfgPath           string
		inputOverride     string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/us_county_deaths.json", "pipeline config JSON path")
	flag.StringVar(&inputOverride, "input", "", "override the configured source with a local CSV path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	defer f.Close()

	var p config.Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		fatalf("decode config: %v", err)
	}

	if inputOverride != "" {
		p.Source = config.Source{Kind: "file", File: config.SourceFile{Path: inputOverride}}
	}

	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(p.Job, metricsBackendFlg, pushGatewayURLFlg, datadogAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("pipeline: job=%s source=%s aggregate_by=%s storage=%s",
			p.Job, p.Source.Kind, p.Aggregate.By, p.Storage.Kind)
	}

	res, err := pipeline.Run(ctx, p)
	if err != nil {
		log.Fatalf("%v", err)
	}

	printResult(res)

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// setupMetrics decides the metrics backend: flag → env → default (nop).
func setupMetrics(job, backendName, gwURL, ddAddr string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	if job == "" {
		job = "mortality"
	}

	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%v job=%v", gwURL, job)
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DD_AGENT_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr, Namespace: "mortality."})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%v", ddAddr)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// printResult writes the human-facing run summary: aggregates and the
// regression line, with undefined values marked rather than zeroed.
func printResult(res *pipeline.Result) {
	for _, a := range res.Aggregates {
		ratio := "undefined"
		if a.RatioDefined {
			ratio = fmt.Sprintf("%.6f", a.Ratio)
		}
		gdp := "-"
		if a.GDPPerCapita != nil {
			gdp = fmt.Sprintf("%.0f", *a.GDPPerCapita)
		}
		if a.Date.IsZero() {
			fmt.Printf("%-24s pop=%-12d observed=%-10d ratio=%-10s gdp=%s\n",
				a.Region, a.TotalPopulation, a.TotalObserved, ratio, gdp)
		} else {
			fmt.Printf("%-24s %s pop=%-12d observed=%-10d ratio=%s\n",
				a.Region, a.Date.Format("2006-01-02"), a.TotalPopulation, a.TotalObserved, ratio)
		}
	}
	if res.Regression.Defined {
		fmt.Printf("regression: ratio = %.6g * gdp + %.6g (n=%d)\n",
			res.Regression.Slope, res.Regression.Intercept, res.Regression.N)
	}
	fmt.Printf("rejected: %d record(s); see audit partition for reasons\n", len(res.Rejected))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
