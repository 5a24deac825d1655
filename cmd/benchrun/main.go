package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/backend"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/buildinfo"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/config"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/dataset"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/groundtruth"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/logging"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/metrics"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/orchestrator"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/report"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/runner"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scenario"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/schedule"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/scorer"
	"github.com/Smarter-Sorting/ai-agentic-retailing-benchmark/statusreporter"
)

type Args struct {
	ConfigPath       string
	EnvPath          string
	Platforms        string
	ExcludePlatforms string
	ScenarioStart    string
	ScenarioEnd      string
	ShowVersion      bool
	Validate         bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	// Handle version request
	if args.ShowVersion {
		showVersion()
		return nil
	}

	// Validate required config path
	if args.ConfigPath == "" {
		return fmt.Errorf("config flag (-c or --config) is required")
	}

	// Credentials live in the environment; a .env file is a convenience for
	// local runs and is not required.
	if args.EnvPath != "" {
		if err := godotenv.Load(args.EnvPath); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.LoadConfig(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Handle validation-only request
	if args.Validate {
		fmt.Printf("Configuration validation successful: %s\n", args.ConfigPath)
		return nil
	}

	loggerConfig := logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.AddSource,
	}
	logger, err := logging.New(loggerConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	props := buildinfo.Get()
	logger.Info("benchrun started",
		"version", props.Version,
		"build_time", props.BuildTime,
		"git_commit", props.GitCommit,
		"config_path", args.ConfigPath,
	)

	recorder, err := buildRecorder(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up metrics: %w", err)
	}

	bench := &benchmark{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		selection: orchestrator.Selection{
			IncludePlatforms: splitList(args.Platforms),
			ExcludePlatforms: splitList(args.ExcludePlatforms),
			ScenarioStart:    args.ScenarioStart,
			ScenarioEnd:      args.ScenarioEnd,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule != "" {
		trigger, err := schedule.NewTrigger(cfg.Schedule, bench, logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to create schedule trigger: %w", err)
		}
		logger.Info("running on schedule",
			"spec", cfg.Schedule,
			"next_run", trigger.NextRun())
		trigger.Start(ctx)
		<-ctx.Done()
		return nil
	}

	return bench.Run(ctx)
}

// benchmark holds everything a single benchmark run needs. It implements
// schedule.Runnable so the same path serves one-shot and scheduled modes.
type benchmark struct {
	cfg       config.Config
	logger    *logging.Logger
	selection orchestrator.Selection
	recorder  *metrics.Recorder
}

// buildRecorder picks the metrics mode. Scheduled deployments expose a
// scrape endpoint; one-shot runs push to remote write; neither configured
// means no metrics. Built once so repeated scheduled runs share one
// registration.
func buildRecorder(cfg config.Config, logger *logging.Logger) (*metrics.Recorder, error) {
	mon := cfg.Monitoring
	switch {
	case mon.ListenAddr != "":
		registry, err := metrics.NewScrapeRegistry(mon.MetricsPrefix)
		if err != nil {
			return nil, err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", registry.Handler())
		go func() {
			if err := http.ListenAndServe(mon.ListenAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", mon.ListenAddr)
		return metrics.NewRecorder(registry)
	case mon.RemoteWriteURL != "":
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get hostname: %w", err)
		}
		registry := metrics.NewPushRegistry(metrics.PushConfig{
			URL:      mon.RemoteWriteURL,
			Prefix:   mon.MetricsPrefix,
			Job:      mon.JobName,
			Instance: hostname,
		})
		return metrics.NewRecorder(registry)
	default:
		return nil, nil
	}
}

func (b *benchmark) Run(ctx context.Context) error {
	records, err := dataset.LoadSteps(b.cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	groups, err := orchestrator.BuildGroups(records, b.selection)
	if err != nil {
		return fmt.Errorf("failed to build scenario groups: %w", err)
	}
	if len(groups) == 0 {
		return fmt.Errorf("selection matched no scenario runs")
	}
	b.logger.Info("dataset loaded",
		"steps", len(records),
		"scenario_runs", len(groups),
	)

	registry, err := b.buildClients()
	if err != nil {
		return err
	}

	sink, closeSink, err := b.buildSink(groups)
	if err != nil {
		return err
	}
	defer closeSink()

	judge, err := b.buildScorer(registry, sink)
	if err != nil {
		return err
	}

	collector := logging.NewLogCollector()
	orch := &orchestrator.Orchestrator{
		Clients:       registry,
		Sink:          sink,
		Logger:        b.logger.Logger,
		Status:        statusreporter.New(b.logger.Logger),
		Scorer:        judge,
		Hook:          logging.NewCapturingLoggerHook(collector),
		MaxConcurrent: b.cfg.Behavior.MaxConcurrent,
	}
	if b.recorder != nil {
		orch.Metrics = b.recorder
	}

	outcomes, err := orch.Execute(ctx, groups)
	if err != nil {
		return fmt.Errorf("benchmark execution failed: %w", err)
	}

	b.logSummary(outcomes, collector)
	return nil
}

// buildClients constructs one backend client per configured platform, wrapped
// with the retry and throttle policy.
func (b *benchmark) buildClients() (*backend.Registry, error) {
	registry := backend.NewRegistry()
	for _, p := range b.cfg.Platforms {
		creds, err := config.ResolveCredentials(p)
		if err != nil {
			// A platform without credentials is disabled, not fatal; its
			// runs get recorded as failed by the orchestrator.
			b.logger.Warn("platform disabled, credentials incomplete",
				"platform_id", p.ID, "error", err)
			continue
		}
		client, err := backend.NewChatClient(p.ID, p.Provider, backend.Credentials{
			BaseURL: creds.BaseURL,
			APIKey:  creds.APIKey,
			Model:   creds.Model,
		}, b.cfg.Timeouts.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to build client for %s: %w", p.ID, err)
		}

		var wrapped backend.Client = &backend.RetryClient{
			Inner:   client,
			Retries: *b.cfg.Behavior.MaxRetries,
			Backoff: b.cfg.Behavior.RetryDelay,
			Logger:  b.logger.Logger,
		}
		if p.Throttle > 0 {
			wrapped = &backend.ThrottleClient{Inner: wrapped, Delay: p.Throttle}
		}
		registry.Register(p.ID, wrapped)
	}
	return registry, nil
}

// buildSink creates the report store for this run, named by timestamp so
// successive runs never clobber each other.
func (b *benchmark) buildSink(groups []orchestrator.Group) (report.Sink, func(), error) {
	if err := os.MkdirAll(b.cfg.Report.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create report dir: %w", err)
	}
	name := "test_report_" + time.Now().Format("20060102_150405")

	switch b.cfg.Report.Format {
	case "xlsx":
		var rows []scenario.StepRecord
		for _, group := range groups {
			rows = append(rows, group.Steps...)
		}
		path := filepath.Join(b.cfg.Report.Dir, name+".xlsx")
		sink, err := report.NewXLSXSink(path, rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xlsx report: %w", err)
		}
		b.logger.Info("writing report", "path", path)
		return sink, func() {}, nil
	default:
		path := filepath.Join(b.cfg.Report.Dir, name+".db")
		sink, err := report.NewSQLiteSink(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sqlite report: %w", err)
		}
		b.logger.Info("writing report", "path", path)
		return sink, func() {
			if err := sink.Close(); err != nil {
				b.logger.Warn("failed to close report store", "error", err)
			}
		}, nil
	}
}

func (b *benchmark) buildScorer(registry *backend.Registry, sink report.Sink) (orchestrator.Scorer, error) {
	if !b.cfg.ScoringEnabled() {
		return nil, nil
	}
	truth, err := groundtruth.LoadXLSX(b.cfg.Scoring.GroundTruth)
	if err != nil {
		return nil, fmt.Errorf("failed to load ground truth: %w", err)
	}
	judge, ok := registry.Lookup(b.cfg.Scoring.Platform)
	if !ok {
		b.logger.Warn("scoring disabled, scoring platform has no client",
			"platform_id", b.cfg.Scoring.Platform)
		return nil, nil
	}

	var template string
	if b.cfg.Scoring.TemplatePath != "" {
		raw, err := os.ReadFile(b.cfg.Scoring.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read scoring template: %w", err)
		}
		template = string(raw)
	}

	s := &scorer.Scorer{
		Client:      judge,
		GroundTruth: truth,
		Template:    template,
		Sink:        sink,
		Logger:      b.logger.Logger,
	}
	if b.recorder != nil {
		s.Metrics = b.recorder
	}
	return s, nil
}

// logSummary reports the end-of-run totals plus any runs whose captured logs
// contain errors, so a failed platform is visible without opening the report.
func (b *benchmark) logSummary(outcomes []*runner.Outcome, collector *logging.LogCollector) {
	var totalSteps, totalSuccesses int
	for _, outcome := range outcomes {
		totalSteps += len(outcome.Statuses)
		totalSuccesses += outcome.Successes
	}
	b.logger.Info("benchmark run complete",
		"scenario_runs", len(outcomes),
		"steps", totalSteps,
		"succeeded", totalSuccesses,
		"failed", totalSteps-totalSuccesses,
	)

	for key, entries := range collector.GetAllLogs() {
		var errorCount int
		for _, entry := range entries {
			if entry.Level == "ERROR" {
				errorCount++
			}
		}
		if errorCount > 0 {
			b.logger.Warn("scenario run logged errors",
				"scenario_id", key.ScenarioID,
				"platform_id", key.PlatformID,
				"error_logs", errorCount,
			)
		}
	}
}

func parseArgs() Args {
	configPath := flag.String("config", "", "Path to config file")
	configPathShort := flag.String("c", "", "Path to config file (shorthand)")
	envPath := flag.String("env", "", "Path to .env file with platform credentials")
	platforms := flag.String("platform", "", "Comma-separated platform ids to include")
	excludePlatforms := flag.String("exclude-platform", "", "Comma-separated platform ids to exclude")
	scenarioStart := flag.String("scenario-start", "", "First scenario id to run (inclusive)")
	scenarioEnd := flag.String("scenario-end", "", "Last scenario id to run (inclusive)")
	showVersion := flag.Bool("version", false, "Show version information")
	versionShort := flag.Bool("v", false, "Show version information (shorthand)")
	validate := flag.Bool("validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConversational AI Benchmark Runner\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --config config.yaml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config config.yaml --platform CHATGPT,CLAUDE\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config config.yaml --scenario-start Q001 --scenario-end Q020\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config config.yaml --validate\n", os.Args[0])
	}

	flag.Parse()

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	version := *showVersion || *versionShort

	return Args{
		ConfigPath:       path,
		EnvPath:          *envPath,
		Platforms:        *platforms,
		ExcludePlatforms: *excludePlatforms,
		ScenarioStart:    *scenarioStart,
		ScenarioEnd:      *scenarioEnd,
		ShowVersion:      version,
		Validate:         *validate,
	}
}

func showVersion() {
	props := buildinfo.Get()
	fmt.Printf("benchrun %s\n", props.Version)
	fmt.Printf("Built: %s\n", props.BuildTime)
	fmt.Printf("Commit: %s\n", props.GitCommit)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
