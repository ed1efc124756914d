package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/obentoo/project-summary/internal/common/config"
	"github.com/obentoo/project-summary/internal/common/github"
	"github.com/obentoo/project-summary/internal/common/httpclient"
	"github.com/obentoo/project-summary/internal/common/logger"
	"github.com/obentoo/project-summary/internal/common/output"
	"github.com/obentoo/project-summary/internal/common/provider"
	"github.com/obentoo/project-summary/internal/common/version"
	"github.com/obentoo/project-summary/internal/httpcache"
	"github.com/obentoo/project-summary/internal/report"
	"github.com/obentoo/project-summary/internal/summary"
	"github.com/spf13/cobra"
)

var (
	verbosity     int
	quiet         bool
	noColor       bool
	configPath    string
	logFile       string
	httpCachePath string
	noHTTPCache   bool
	cacheDuration string
	cacheBackend  string

	skipBranches bool
	htmlOutput   bool
	outputFile   string
	fetch        bool
	pull         bool
	jobs         int
	sortKey      string
)

var rootCmd = &cobra.Command{
	Use:   "project-summary",
	Short: "Summarize the release status of your projects",
	Long: `Inspects local git checkouts of your projects and reports how many commits
each one has accumulated since its last release tag.

With --html it produces a static status page that also shows CI badges,
coverage, PyPI downloads, open issues and supported Python versions.`,
	Version:           version.Short(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runSummary,
}

func init() {
	rootCmd.SetVersionTemplate("project-summary version {{.Version}}\n")

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "More verbose output (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Use this config file instead of the default locations")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write a JSON log to this file")
	rootCmd.PersistentFlags().StringVar(&httpCachePath, "http-cache", config.DefaultCachePath, "HTTP cache database name")
	rootCmd.PersistentFlags().BoolVar(&noHTTPCache, "no-http-cache", false, "Disable HTTP caching")
	rootCmd.PersistentFlags().StringVar(&cacheDuration, "cache-duration", config.DefaultCacheDuration, "How long cached HTTP responses stay fresh (e.g. 15m, \"1 hour\", never)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", httpcache.BackendSQLite, "HTTP cache backend: sqlite, json or memory")

	rootCmd.Flags().BoolVar(&skipBranches, "skip-branches", false, "Ignore checkouts that are not on master or main")
	rootCmd.Flags().BoolVar(&htmlOutput, "html", false, "Produce an HTML status page")
	rootCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "Write the HTML page to this file (default stdout)")
	rootCmd.Flags().BoolVar(&fetch, "fetch", false, "Run git fetch in each checkout first")
	rootCmd.Flags().BoolVar(&fetch, "update", false, "Alias for --fetch")
	rootCmd.Flags().BoolVar(&pull, "pull", false, "Run git pull in each checkout first")
	rootCmd.Flags().IntVar(&jobs, "jobs", 1, "Inspect this many checkouts in parallel")
	rootCmd.Flags().StringVar(&sortKey, "sort", string(summary.SortByName), "Sort projects by name, pending, age or issues")

	rootCmd.RegisterFlagCompletionFunc("cache-backend", cobra.FixedCompletions(
		[]string{httpcache.BackendSQLite, httpcache.BackendJSON, httpcache.BackendMemory}, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.RegisterFlagCompletionFunc("sort", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var keys []string
		for _, key := range summary.SortKeys {
			keys = append(keys, string(key))
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	})
}

// setup configures logging and colors for every command
func setup(cmd *cobra.Command, args []string) error {
	logger.SetVerbosity(verbosity)
	if quiet {
		logger.SetQuiet(true)
	}
	if noColor {
		output.NoColor()
	}
	return nil
}

// loadConfig reads the config file and applies command line overrides.
// Only flags given explicitly override the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("skip-branches") {
		cfg.SkipBranches = skipBranches
	}
	if flags.Changed("fetch") || flags.Changed("update") {
		cfg.Fetch = fetch
	}
	if flags.Changed("pull") {
		cfg.Pull = pull
	}
	if flags.Changed("http-cache") {
		cfg.Cache.Path = httpCachePath
	}
	if flags.Changed("cache-backend") {
		cfg.Cache.Backend = cacheBackend
	}
	if flags.Changed("cache-duration") {
		cfg.Cache.Duration = cacheDuration
	}
	if noHTTPCache {
		cfg.Cache.Disabled = true
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openCache opens the configured HTTP cache, or returns nil when caching
// is disabled
func openCache(cfg *config.Config) (*httpcache.Cache, error) {
	if cfg.Cache.Disabled {
		return nil, nil
	}
	ttl, err := httpcache.ParseDuration(cfg.Cache.Duration)
	if err != nil {
		return nil, fmt.Errorf("--cache-duration: %w", err)
	}
	store, err := httpcache.OpenStore(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open HTTP cache: %w", err)
	}
	logger.Debug("HTTP cache %s (%s), responses fresh for %s", cfg.Cache.Path, cfg.Cache.Backend, cfg.Cache.Duration)
	return httpcache.New(store, httpcache.WithTTL(ttl)), nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	key, err := summary.ParseSortKey(sortKey)
	if err != nil {
		return err
	}
	if jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", jobs)
	}

	if cfg.LogFile != "" {
		if err := logger.Default().EnableFileLogging(cfg.LogFile); err != nil {
			logger.Warn("Failed to enable file logging: %v", err)
		}
		defer logger.Default().Close()
	}

	// Remote lookups feed the HTML page and the issues ranking
	remote := htmlOutput || key == summary.SortByIssues

	client := httpclient.NewRetryableHTTPClient()
	if remote {
		cache, err := openCache(cfg)
		if err != nil {
			return err
		}
		if cache != nil {
			defer cache.Close()
			client.SetTransport(httpcache.NewTransport(cache, http.DefaultTransport))
		}
	}

	dirs, err := summary.Discover(cfg)
	if err != nil {
		return err
	}
	logger.Info("Found %d checkouts", len(dirs))

	var registry *provider.Registry
	if remote {
		registry = provider.DefaultRegistry(client, provider.Tokens{
			GitHub: cfg.GitHubToken(),
			GitLab: cfg.GitLabToken(),
		})
	}
	collector := summary.NewCollector(cfg, registry, client)
	collector.Jobs = jobs
	if !htmlOutput {
		collector.HTTP = nil
	}

	projects, err := collector.Collect(cmd.Context(), dirs)
	if err != nil {
		return err
	}
	if remote && verbosity >= 1 {
		logQuota(cmd.Context(), cfg)
	}
	summary.Sort(projects, key)
	summary.Annotate(projects, time.Now(), time.Duration(cfg.StaleAfterDays)*24*time.Hour)

	if htmlOutput {
		if outputFile == "" || outputFile == "-" {
			return report.RenderHTML(cmd.OutOrStdout(), projects, cfg)
		}
		if err := report.WriteFile(outputFile, projects, cfg); err != nil {
			return err
		}
		logger.Info("Wrote %s", outputFile)
		return nil
	}

	if outputFile != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: --output-file ignored in non-HTML mode")
	}
	return report.RenderText(cmd.OutOrStdout(), projects, verbosity)
}

// logQuota reports the GitHub API quota left after the run. It bypasses
// the HTTP cache.
func logQuota(ctx context.Context, cfg *config.Config) {
	client := github.NewClient(httpclient.NewRetryableHTTPClient(), cfg.GitHubToken())
	remaining, reset, err := client.RateLimit(ctx)
	if err != nil {
		logger.Debug("cannot query GitHub rate limit: %v", err)
		return
	}
	logger.Info("GitHub API: %d requests left, quota resets at %s", remaining, reset.Local().Format("15:04"))
}

// exitMessage formats a command error for the terminal
func exitMessage(err error) string {
	if errors.Is(err, github.ErrAPI) {
		return "GitHub error: " + err.Error()
	}
	return err.Error()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, github.ErrAPI) {
			output.PrintError("%s", exitMessage(err))
		} else {
			logger.Error("%s", exitMessage(err))
		}
		os.Exit(1)
	}
}
