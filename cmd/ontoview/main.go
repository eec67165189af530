package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wbrown/janus-ontology/config"
)

var (
	verbose    bool
	configPath string
	preloadDir string
	watch      bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ontoview [file...]",
	Short: "Browse, query and extend OWL ontologies",
	Long: `ontoview loads RDF/XML, N-Triples and N-Quads documents into an
in-memory fact store and shows their class hierarchy, object properties
and instances.

Run with file arguments to load them before the interactive prompt starts.`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(cmd); err != nil {
			return err
		}

		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger, verbose, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.loadFiles(args); err != nil {
			return err
		}
		if err := a.startWatcher(cmd.Context()); err != nil {
			return err
		}
		return a.repl(cmd.InOrStdin())
	},
}

// loadConfig reads --config when given and applies the flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		c = loaded
	}
	flags := cmd.Flags()
	c.Merge(&config.Config{Preload: config.PreloadConfig{Dir: preloadDir}})
	if flags.Changed("watch") {
		c.Preload.Watch = watch
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Print debug logs and annotation events")
	pf.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&preloadDir, "preload", "", "Directory of ready-made ontologies")
	pf.BoolVar(&watch, "watch", false, "Rescan the preload directory when it changes")

	rootCmd.AddCommand(treeCmd, queryCmd, preloadCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
