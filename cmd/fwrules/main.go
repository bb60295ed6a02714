package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firewall-rule-engine/internal/config"
	"firewall-rule-engine/internal/engine"
	"firewall-rule-engine/internal/highlight"
	"firewall-rule-engine/internal/metrics"
	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/internal/parser"
	"firewall-rule-engine/internal/report"
	"firewall-rule-engine/internal/server"
	"firewall-rule-engine/internal/source"
	"firewall-rule-engine/internal/watch"
)

const version = "1.0-go"

// ErrInvalidRules is returned when at least one document failed validation.
var ErrInvalidRules = errors.New("invalid firewall rules")

var (
	configFile string
	logLevel   string
	logFile    string
	logFormat  string

	ruleProvider string
	rulesDB      string
	profileName  string
	outputFormat string
	parseFormat  string
	workers      int
	watchMode    bool
	listenAddr   string

	cfg *config.Config
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fwrules",
		Short: "Validate and highlight firewall rule documents",
		Long: `fwrules checks documents written in the console's firewall rule language
	(ACTION ADDRESS DIRECTION PROTOCOL [PORTS], one rule per line) and reports
	every malformed line, renders syntax-highlighted markup, and serves both
	over HTTP.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initRuntime,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format: 'json' or 'text'")

	rootCmd.AddCommand(newValidateCmd(), newHighlightCmd(), newParseCmd(), newServeCmd())
	return rootCmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Validate rule files, directories, stdin ('-') or stored network profiles",
		RunE:  runValidate,
	}
	cmd.Flags().StringVar(&ruleProvider, "provider", "file", "Rule provider: 'file', 'mariadb', 'mysql' or 'sqlite'")
	cmd.Flags().StringVar(&rulesDB, "db", "", "Database connection string (for SQL providers)")
	cmd.Flags().StringVar(&profileName, "profile", "", "Only validate the named network profile (SQL providers)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: "+strings.Join(report.SupportedFormats(), ", "))
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent validators (default: number of CPUs)")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Re-validate whenever the given files change")
	return cmd
}

func newHighlightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "highlight [path]",
		Short: "Print syntax-highlighted HTML markup for a rule document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readSingle(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), highlight.Highlight(doc.Text))
			return err
		},
	}
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [path]",
		Short: "Print the structured form of every valid rule in a document",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runParse,
	}
	cmd.Flags().StringVarP(&parseFormat, "output", "o", "json", "Output format: 'json' or 'yaml'")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validate, highlight and parse HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides server.listen_address)")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, ErrInvalidRules) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// initRuntime layers configuration as file, then FWRULES_* environment, then
// explicitly set flags, validates the result once and installs the logger.
func initRuntime(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfigWithEnvOverrides(configFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		loaded.Log.File = logFile
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = logFormat
	}
	if flags.Lookup("provider") != nil && flags.Changed("provider") {
		loaded.Source.Provider = ruleProvider
	}
	if flags.Lookup("db") != nil && flags.Changed("db") {
		loaded.Source.DSN = rulesDB
	}
	if flags.Lookup("profile") != nil && flags.Changed("profile") {
		loaded.Source.Profile = profileName
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		loaded.Validate.Workers = workers
	}
	if flags.Lookup("listen") != nil && flags.Changed("listen") {
		loaded.Server.ListenAddress = listenAddr
	}
	if cmd.Name() == "validate" && flags.Changed("output") {
		loaded.Validate.Output = outputFormat
	}
	if err := config.Validate(loaded); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	cfg = loaded

	slog.SetDefault(setupLogger(cfg.Log.Level, cfg.Log.File, cfg.Log.Format))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := config.ValidateSource(cfg.Source); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	writer, err := report.NewWriter(cfg.Validate.Output)
	if err != nil {
		return err
	}
	validator := engine.NewValidator(cfg.Validate.Workers, slog.Default())

	check := func(ctx context.Context) error {
		docs, err := loadDocuments(ctx, cmd.InOrStdin(), args)
		if err != nil {
			slog.Error("Failed to load rule documents", "provider", cfg.Source.Provider, "error", err)
			return err
		}
		slog.Info("Loaded rule documents", "provider", cfg.Source.Provider, "count", len(docs))

		reports, err := validator.ValidateAll(ctx, docs)
		if err != nil {
			return err
		}
		if err := writer.Write(cmd.OutOrStdout(), reports); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		summary := engine.Summarize(reports)
		slog.Info("Validation complete",
			"documents", summary.Documents,
			"invalid", summary.Invalid,
			"rules", summary.Rules,
			"errors", summary.Errors)
		if summary.Invalid > 0 {
			return ErrInvalidRules
		}
		return nil
	}

	if !watchMode {
		return check(ctx)
	}
	return watchAndValidate(ctx, args, check)
}

func watchAndValidate(ctx context.Context, paths []string, check func(context.Context) error) error {
	if !strings.EqualFold(cfg.Source.Provider, "file") {
		return fmt.Errorf("--watch requires the file provider")
	}
	if len(paths) == 0 {
		return fmt.Errorf("--watch requires at least one path")
	}
	for _, p := range paths {
		if p == source.Stdin {
			return fmt.Errorf("--watch cannot read from stdin")
		}
	}

	w, err := watch.New(paths, cfg.Validate.Extensions, cfg.Validate.Debounce, slog.Default())
	if err != nil {
		return err
	}
	defer w.Close()

	if err := check(ctx); err != nil && !errors.Is(err, ErrInvalidRules) {
		return err
	}
	slog.Info("Watching for changes", "paths", paths)
	return w.Run(ctx, func(ctx context.Context) error {
		if err := check(ctx); err != nil && !errors.Is(err, ErrInvalidRules) {
			return err
		}
		return nil
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	doc, err := readSingle(cmd, args)
	if err != nil {
		return err
	}
	rules, result := parser.ParseDocument(doc.Text)
	out := struct {
		Name   string                 `json:"name" yaml:"name"`
		Rules  []model.ParsedRule     `json:"rules" yaml:"rules"`
		Result model.ValidationResult `json:"result" yaml:"result"`
	}{Name: doc.Name, Rules: rules, Result: result}

	w := cmd.OutOrStdout()
	switch strings.ToLower(parseFormat) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(out)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(out); err == nil {
			err = enc.Close()
		}
	default:
		return fmt.Errorf("unsupported output format for parse: %s", parseFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to write parse output: %w", err)
	}
	if !result.Valid {
		return ErrInvalidRules
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
	}
	slog.Info("Starting fwrules API", "version", version, "metrics", cfg.Metrics.Enabled)
	return server.New(cfg, collector, slog.Default()).Run(cmd.Context())
}

func loadDocuments(ctx context.Context, stdin io.Reader, paths []string) ([]model.RuleDocument, error) {
	switch provider := strings.ToLower(cfg.Source.Provider); provider {
	case "file":
		if len(paths) == 0 {
			paths = []string{source.Stdin}
		}
		loader := source.NewFileLoader(cfg.Validate.Extensions)
		loader.Stdin = stdin
		return loader.Load(paths)
	case "mariadb", "mysql", "sqlite":
		if len(paths) > 0 {
			return nil, fmt.Errorf("paths cannot be combined with the %s provider", provider)
		}
		src, err := source.NewSQLSource(ctx, provider, cfg.Source.DSN)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Load(ctx, cfg.Source.Profile)
	default:
		return nil, fmt.Errorf("unknown rule provider: %s", cfg.Source.Provider)
	}
}

func readSingle(cmd *cobra.Command, args []string) (model.RuleDocument, error) {
	path := source.Stdin
	if len(args) == 1 {
		path = args[0]
	}
	loader := source.NewFileLoader(cfg.Validate.Extensions)
	loader.Stdin = cmd.InOrStdin()
	docs, err := loader.Load([]string{path})
	if err != nil {
		return model.RuleDocument{}, err
	}
	if len(docs) != 1 {
		return model.RuleDocument{}, fmt.Errorf("expected a single rule document, found %d", len(docs))
	}
	return docs[0], nil
}

func setupLogger(level, logFilePath, format string) *slog.Logger {
	var logWriter io.Writer = os.Stderr
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logWriter = f
		}
		// Falls back to stderr; there is no logger yet to report the failure.
	}

	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(logWriter, opts))
	}
	return slog.New(slog.NewJSONHandler(logWriter, opts))
}
