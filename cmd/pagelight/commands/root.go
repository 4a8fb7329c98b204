package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pagelight/pagelight/cmd/pagelight/ui"
	"github.com/pagelight/pagelight/internal/config"
	"github.com/pagelight/pagelight/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "pagelight",
	Short: "Pagelight - paginated document text extraction and rendering",
	Long: `Pagelight opens PDF, EPUB and XPS documents, extracts their merged text
with figure markers and per-page offsets, and rasterizes pages progressively.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Init(noColor)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration from defaults, an optional
// config file and environment overrides.
func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger builds the CLI logger; --verbose lowers the level to debug.
func newLogger(cfg config.Config) zerolog.Logger {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Logging.Format,
		ServiceName: "pagelight",
	})
}
