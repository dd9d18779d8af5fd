// Package cmd provides the command-line interface for FocusCrawl.
// It handles command parsing, configuration loading, logging setup,
// crawler execution and report output.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/focuscrawl/internal/config"
	"github.com/masahif/focuscrawl/internal/crawler"
	"github.com/masahif/focuscrawl/internal/logging"
	"github.com/masahif/focuscrawl/internal/storage"
)

const defaultUserAgent = "FocusCrawl/1.0"

var (
	cfgFile   string
	version   string
	buildTime string

	logger *logging.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "focuscrawl [URLs...]",
	Short: "A focused web crawler collecting word and subdomain statistics",
	Long: `FocusCrawl crawls a fixed set of domains politely, skipping crawler
traps, low-content pages and near-duplicates, and reports the number of
unique pages, the longest page, the most common words and the pages
found per subdomain.

The crawl state lives in a SQLite database, so an interrupted crawl
resumes where it stopped when run again without URLs.`,
	Args:               cobra.ArbitraryArgs,
	PersistentPreRunE:  setupLogging,
	RunE:               runCrawler,
	SilenceUsage:       true,
	DisableAutoGenTag:  true,
	PersistentPostRunE: closeLogging,
}

// Execute runs the root command until it completes or the process receives
// an interrupt, in which case the crawl stops after checkpointing.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logger != nil {
		_ = logger.Close()
		logger = nil
	}
	return err
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	// Shared by the crawl and report commands
	pflags := rootCmd.PersistentFlags()
	pflags.StringVar(&cfgFile, "config", "", "config file (default is ./focuscrawl.yml)")
	pflags.StringP("database", "d", defaults.DatabasePath, "Path to SQLite database file")
	pflags.StringP("report", "o", "", "Write the report to this file instead of stdout")
	pflags.String("report-format", defaults.ReportFormat, "Report format: text, markdown or yaml")
	pflags.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	pflags.String("log-format", defaults.LogFormat, "Log format: json or text")
	pflags.String("log-file", "", "Also write logs to this file, rotated by size")

	flags := rootCmd.Flags()
	flags.Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Crawling
	flags.IntP("concurrency", "c", defaults.Concurrency, "Number of concurrent workers")
	flags.DurationP("delay", "r", defaults.RequestDelay, "Minimum delay between requests to one host")
	flags.DurationP("timeout", "t", defaults.RequestTimeout, "HTTP request timeout")
	flags.StringP("user-agent", "u", defaults.UserAgent, "HTTP User-Agent header")
	flags.Bool("ignore-robots", false, "Ignore robots.txt rules")
	flags.IntP("limit", "l", 0, "Stop after N pages (0=unlimited)")
	flags.Int("cache-size", defaults.CacheSize, "Fetched pages kept for near-duplicate comparison")
	flags.Int64("max-body-size", defaults.MaxBodySize, "Bytes read from each response body")

	// Scope and content rules
	flags.StringSlice("allowed-domains", defaults.Scope.AllowedDomains, "Domains, with their subdomains, that may be crawled")
	flags.Int("min-words", defaults.Scope.MinWords, "Pages with fewer words are not counted")
	flags.Int("max-words", defaults.Scope.MaxWords, "Pages with more words are not counted (0=no limit)")
	flags.Float64("similarity", defaults.Scope.SimilarityThreshold, "Jaccard similarity at which a link is a near-duplicate")
	flags.Int("top-words", defaults.Scope.TopWords, "Number of most common words reported")

	rootCmd.AddCommand(reportCmd, statusCmd)

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"database_path", "database"},
		{"report_path", "report"},
		{"report_format", "report-format"},
		{"log_level", "log-level"},
		{"log_format", "log-format"},
		{"log_file", "log-file"},
		{"concurrency", "concurrency"},
		{"request_delay", "delay"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
		{"ignore_robots", "ignore-robots"},
		{"limit", "limit"},
		{"cache_size", "cache-size"},
		{"max_body_size", "max-body-size"},
		{"scope.allowed_domains", "allowed-domains"},
		{"scope.min_words", "min-words"},
		{"scope.max_words", "max-words"},
		{"scope.similarity_threshold", "similarity"},
		{"scope.top_words", "top-words"},
	}

	for _, bind := range bindFlags {
		flag := flags.Lookup(bind.flagName)
		if flag == nil {
			flag = pflags.Lookup(bind.flagName)
		}
		if err := viper.BindPFlag(bind.viperKey, flag); err != nil {
			// Log the error but continue - non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("focuscrawl")
	}

	viper.SetEnvPrefix("FC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and flags. URLs given
// as arguments replace the configured seeds.
func loadConfig(args []string) (*config.CrawlConfig, error) {
	cfg := config.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(args) > 0 {
		cfg.SeedURLs = args
	}

	if cfg.UserAgent == defaultUserAgent {
		cfg.UserAgent = generateUserAgent()
	}
	return cfg, nil
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("FocusCrawl/%s", version)
	}
	return defaultUserAgent
}

// setupLogging installs the default logger from the log_* settings
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = viper.GetString("log_format")
	logCfg.FilePath = viper.GetString("log_file")
	logCfg.Console = cmd.ErrOrStderr()

	l, err := logging.SetDefault(*logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger = l
	return nil
}

func closeLogging(cmd *cobra.Command, args []string) error {
	if logger == nil {
		return nil
	}
	err := logger.Close()
	logger = nil
	return err
}

func showCurrentConfig(w io.Writer, cfg *config.CrawlConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current FocusCrawl Configuration\n")
	fmt.Fprintf(w, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Configuration file search paths: ./focuscrawl.yml\n")
	fmt.Fprintf(w, "# Environment variables prefix: FC_\n\n")

	fmt.Fprint(w, string(yamlData))

	fmt.Fprintf(w, "\n# Configuration source priority:\n")
	fmt.Fprintf(w, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(w, "# 2. Environment variables (FC_ prefix)\n")
	fmt.Fprintf(w, "# 3. Configuration file (focuscrawl.yml)\n")
	fmt.Fprintf(w, "# 4. Default values (lowest priority)\n")

	return nil
}

func runCrawler(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cmd.OutOrStdout(), cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	status := cmd.ErrOrStderr()

	if len(cfg.SeedURLs) == 0 {
		hasWork, err := checkResumable(cfg.DatabasePath)
		if err != nil {
			return err
		}
		if !hasWork {
			fmt.Fprintf(status, "No URLs provided and no queued items found in database %s\n", cfg.DatabasePath)
			fmt.Fprintf(status, "Nothing to crawl. Exiting.\n")
			return nil
		}
		fmt.Fprintf(status, "Resuming crawl from existing database: %s\n", cfg.DatabasePath)
	}

	fmt.Fprintf(status, "Starting crawler with configuration:\n")
	if len(cfg.SeedURLs) > 0 {
		fmt.Fprintf(status, "  Seed URLs: %v\n", cfg.SeedURLs)
	} else {
		fmt.Fprintf(status, "  Seed URLs: (none - resuming from existing queue)\n")
	}
	fmt.Fprintf(status, "  Allowed Domains: %v\n", cfg.Scope.AllowedDomains)
	fmt.Fprintf(status, "  Limit: %d\n", cfg.Limit)
	fmt.Fprintf(status, "  Concurrency: %d\n", cfg.Concurrency)
	fmt.Fprintf(status, "  Request Delay: %v\n", cfg.RequestDelay)
	fmt.Fprintf(status, "  Database: %s\n", cfg.DatabasePath)
	fmt.Fprintf(status, "  Ignore Robots: %t\n", cfg.IgnoreRobots)

	return crawl(cmd.Context(), cfg, cmd.OutOrStdout())
}

// checkResumable reports whether the database holds queued work. Running
// without URLs and without a database is an error.
func checkResumable(dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return false, fmt.Errorf("no URLs provided and no existing database found at %s\nUsage: %s [URLs...] or ensure database exists for resume operation",
			dbPath, os.Args[0])
	}

	tempStorage, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return false, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	hasWork, err := tempStorage.HasPending()
	if closeErr := tempStorage.Close(); closeErr != nil && err == nil {
		return false, fmt.Errorf("failed to close temporary storage: %w", closeErr)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check queue status: %w", err)
	}
	return hasWork, nil
}

// crawl runs the crawler to completion or cancellation, then writes the
// report to the configured path or to stdout
func crawl(ctx context.Context, cfg *config.CrawlConfig, stdout io.Writer) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	c, store, err := initializeCrawler(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	defer func() {
		_ = c.Stop()
		if err := store.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	if err := c.Start(ctx, cfg.SeedURLs); err != nil {
		return err
	}

	stats := c.GetStats()
	slog.Info("Crawl finished",
		"crawled", stats.PagesCrawled,
		"accepted", stats.PagesAccepted,
		"errors", stats.ErrorCount,
		"duration", stats.Duration)

	return writeReport(cfg, c.Session().Snapshot(), stdout)
}

// initializeCrawler opens the database and creates a crawler on it
func initializeCrawler(cfg *config.CrawlConfig) (*crawler.DefaultCrawler, *storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	c, err := crawler.NewCrawler(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return c, store, nil
}
