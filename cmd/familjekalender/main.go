package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/BennyTheCop-HazeTaze/familjekalender/internal/config"
	"github.com/BennyTheCop-HazeTaze/familjekalender/internal/ics"
	appLog "github.com/BennyTheCop-HazeTaze/familjekalender/internal/log"
	"github.com/BennyTheCop-HazeTaze/familjekalender/internal/web"
)

type flagConfig struct {
	configPath string
	output     string
	listen     string
	once       bool
	verbose    bool
}

func main() {
	flags := parseFlags()

	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	// Optional .env next to the binary, same surface as the env vars.
	if err := godotenv.Load(); err == nil {
		appLog.Debug(".env loaded")
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(2)
	}
	conf.ApplyEnv()
	if flags.output != "" {
		conf.Output = flags.output
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err)
		os.Exit(2)
	}

	appLog.Info("familjekalender starting",
		"name", conf.Name,
		"output", conf.Output,
		"sources", len(conf.Sources),
		"listen", conf.Listen,
		"refresh", conf.RefreshCron,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := ics.NewFetcher(conf.CacheDir)
	server := web.NewServer(conf)

	// One-shot unless a refresh schedule or HTTP listener asks for
	// daemon mode.
	if flags.once || (conf.RefreshCron == "" && conf.Listen == "") {
		if err := runMerge(ctx, conf, fetcher, server); err != nil {
			appLog.Error("merge failed", err)
			os.Exit(1)
		}
		return
	}

	if err := runMerge(ctx, conf, fetcher, server); err != nil {
		// Daemon keeps going; the schedule retries.
		appLog.Error("initial merge failed", err)
	}

	if conf.RefreshCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(conf.RefreshCron, func() {
			if err := runMerge(ctx, conf, fetcher, server); err != nil {
				appLog.Error("scheduled merge failed", err)
			}
		}); err != nil {
			appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
			os.Exit(2)
		}
		c.Start()
		defer c.Stop()
	}

	if conf.Listen != "" {
		go func() {
			if err := web.StartServer(ctx, conf, server); err != nil {
				appLog.Error("HTTP server failed", err)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	appLog.Info("familjekalender exiting")
}

// runMerge performs one full cycle: fetch every source in order, merge
// the documents that arrived, write the combined calendar, and publish
// the result to the HTTP snapshot and metrics.
func runMerge(ctx context.Context, conf *config.Config, fetcher *ics.Fetcher, server *web.Server) error {
	start := time.Now()

	sources := make([]ics.Source, 0, len(conf.Sources))
	for _, s := range conf.Sources {
		sources = append(sources, ics.Source{URL: s.URL, Label: s.Label})
	}

	results, errs := fetcher.FetchAll(ctx, sources)

	inputs := make([]ics.Input, 0, len(results))
	for _, res := range results {
		inputs = append(inputs, ics.Input{Label: res.Source.Label, Body: res.Body})
	}

	events, report := ics.Merge(inputs)
	doc := ics.BuildCalendar(conf.Name, events)

	if err := writeFileAtomic(conf.Output, []byte(doc)); err != nil {
		return err
	}

	server.SetSnapshot(web.Snapshot{
		Document: doc,
		Report:   report,
		MergedAt: time.Now().UTC(),
	})
	web.RecordMerge(report, time.Since(start), len(results), len(errs))

	appLog.Info("merge complete",
		"output", conf.Output,
		"events", report.EventsEmitted,
		"sources_ok", len(results),
		"sources_failed", len(errs),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// writeFileAtomic writes data via a temp file in the target directory
// plus rename, so subscribers never observe a half-written calendar.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".familjekalender-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "familjekalender.yaml", "Path to config file (optional)")
	flag.StringVar(&cfg.output, "out", "", "Output .ics path (overrides config if set)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+merge cycle and exit")
	flag.BoolVar(&cfg.verbose, "v", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
