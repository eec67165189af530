package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wbrown/janus-ontology/config"
)

var withInstances bool

var treeCmd = &cobra.Command{
	Use:   "tree file...",
	Short: "Print the class hierarchy of the given ontologies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := batchApp(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()
		if withInstances {
			return a.cmdPopulated("")
		}
		return a.cmdTree("")
	},
}

var queryCmd = &cobra.Command{
	Use:   "query file... -- pattern",
	Short: "Run one pattern query against the given ontologies",
	Long: `Run one pattern query against the given ontologies, for example

  ontoview query zoo.owl -- '?c rdfs:subClassOf ?p'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dash := cmd.ArgsLenAtDash()
		if dash < 1 || dash == len(args) {
			return fmt.Errorf("expected files, then -- and a pattern")
		}
		a, err := batchApp(cmd, args[:dash])
		if err != nil {
			return err
		}
		defer a.Close()
		return a.cmdQuery(strings.Join(args[dash:], " "))
	},
}

var preloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "List the ontologies of the preload directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg, logger, verbose, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.cmdCatalog("")
	},
}

var configCmd = &cobra.Command{
	Use:   "config [file]",
	Short: "Print the effective configuration, or write it to file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := cfg.SaveToFile(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return nil
		}
		return writeConfig(cmd, cfg)
	},
}

func init() {
	treeCmd.Flags().BoolVarP(&withInstances, "instances", "i", false, "Attach instances to their classes")
}

// batchApp builds an app and loads files for a one-shot command
func batchApp(cmd *cobra.Command, files []string) (*app, error) {
	a, err := newApp(cfg, logger, verbose, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	a.out = cmd.ErrOrStderr()
	err = a.loadFiles(files)
	a.out = cmd.OutOrStdout()
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func writeConfig(cmd *cobra.Command, c *config.Config) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
