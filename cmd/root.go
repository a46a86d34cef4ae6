package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/s0up4200/aghpb/aghpb"
	"github.com/s0up4200/aghpb/config"
	"github.com/s0up4200/aghpb/display"
	"github.com/s0up4200/aghpb/filter"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	client    aghpb.API
	formatter *display.ConsoleFormatter
	filters   *filter.Manager

	version   = "dev"
	buildTime = "unknown"

	// Persistent flags
	apiURL   string
	logLevel string

	// Shared command flags
	category   string
	limit      int
	filterExpr string
	preset     string
	outPath    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aghpb",
	Short: "Anime girls holding programming books, from your terminal",
	Long: `aghpb is a CLI for the Anime Girls Holding Programming Books API.

It fetches random books, lists categories, searches the collection,
downloads books by search id and filters search results with expressions
such as:

  Category == "Rust" && daysSince(DateAdded) < 90`,
	SilenceUsage:      true,
	PersistentPreRunE: initializeApp,
}

// SetVersion records build information for the version and update commands
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "", "AGHPB API base URL (overrides api.url)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides logging.level)")

	// Add subcommands
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from command line if specified
	if cmd.Flags().Changed("url") {
		cfg.API.URL = apiURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(logLevel)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Create AGHPB client
	client, err = aghpb.NewClient(cfg.API.URL, logger, clientOptions(cfg.API)...)
	if err != nil {
		return fmt.Errorf("failed to create AGHPB client: %w", err)
	}

	formatter = display.NewConsoleFormatter(cfg.Logging.Color && isTerminal(os.Stdout))

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	logger.Debug().
		Str("url", cfg.API.URL).
		Int("presets", len(cfg.Filter.Presets)).
		Msg("Initialized")

	return nil
}

func clientOptions(api config.APIConfig) []aghpb.Option {
	opts := []aghpb.Option{
		aghpb.WithTimeout(api.Timeout),
	}

	userAgent := api.UserAgent
	if userAgent == aghpb.DefaultUserAgent {
		userAgent = fmt.Sprintf("%s/%s", aghpb.DefaultUserAgent, version)
	}
	opts = append(opts, aghpb.WithUserAgent(userAgent))

	if api.RateLimit > 0 {
		opts = append(opts, aghpb.WithRateLimit(rate.Limit(api.RateLimit), api.RateBurst))
	}

	return opts
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// resolveFilter picks the inline expression over the preset
func resolveFilter() (filter.CompiledFilter, error) {
	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return f, nil
}

// searchAndFilter runs a search and applies the --filter or --preset flag
func searchAndFilter(ctx context.Context, query string) (aghpb.SearchResult, error) {
	f, err := resolveFilter()
	if err != nil {
		return nil, err
	}

	result, err := client.Search(ctx, query, aghpb.SearchOptions{
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	if f != nil {
		before := len(result)
		result = filter.Apply(f, result)
		logger.Info().
			Str("filter", f.Expression()).
			Int("matched", len(result)).
			Int("total", before).
			Msg("Applied filter")
	}

	return result, nil
}
