// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"unistream/internal/config"
	"unistream/internal/httputil"
	"unistream/internal/metadata"
	"unistream/internal/provider"
	"unistream/internal/resolve"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagJSON     bool
	flagDebug    bool
	flagProvider string
	flagLanguage string
	flagAll      bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "unistream [query]",
	Short: "Resolve playable streams for movies and TV episodes",
	Long: `unistream searches a TMDB mirror for movies and shows and resolves
playable stream URLs from several upstream providers.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              searchRun,
}

// Execute runs the root command. SIGINT/SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if isCancel(err) {
			return
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().StringVarP(&flagProvider, "provider", "p", "", "Preferred provider: xprime | autoembed | vidsrc")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Subtitle language (default: english, \"all\" keeps every track)")
	rootCmd.PersistentFlags().BoolVarP(&flagAll, "all", "a", false, "Merge streams from every provider")

	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "unistream %s\n", Version)
	},
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagLanguage != "" {
		cfg.SubsLanguage = flagLanguage
	}
	if flagDebug {
		cfg.LogLevel = logrus.DebugLevel.String()
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return setupLogging(cfg)
}

// setupLogging configures the global logrus logger from cfg.
func setupLogging(c *config.Config) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(level)
	if c.LogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// subsLanguage returns the configured subtitle filter; "all" disables it.
func subsLanguage() string {
	if strings.EqualFold(cfg.SubsLanguage, "all") {
		return ""
	}
	return cfg.SubsLanguage
}

// app bundles the collaborators shared by the commands.
type app struct {
	catalog *metadata.Client
	engine  *resolve.Engine
}

// newApp wires the shared HTTP client, metadata client, provider registry
// and resolution engine from cfg.
func newApp() (*app, error) {
	hc := httputil.NewClient()

	catalog := metadata.New(
		metadata.WithHTTPClient(hc),
		metadata.WithMirror(cfg.Upstreams.TMDBMirror),
		metadata.WithAPIBase(cfg.Upstreams.TMDBAPI),
		metadata.WithAPIKey(cfg.APIKey),
	)
	if !catalog.HasAPIKey() {
		logrus.Debugf("no API key set (%s); vidsrc will be unavailable", config.APIKeyEnv)
	}

	reg, err := provider.Default(provider.Deps{
		Client:    hc,
		Upstreams: cfg.ProviderUpstreams(),
		IMDb:      catalog,
	})
	if err != nil {
		return nil, fmt.Errorf("building provider registry: %w", err)
	}

	return &app{catalog: catalog, engine: resolve.New(reg)}, nil
}
