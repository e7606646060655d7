package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/config"
)

type globalFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "dendrite",
		Short:         "Query axons with signed synapses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every exchange to stderr")

	root.AddCommand(newQueryCmd(g), newKeygenCmd())
	return root
}

// load returns the config file, or an empty config when none was given.
func (g *globalFlags) load() (*config.Config, error) {
	if g.configPath == "" {
		return &config.Config{}, nil
	}
	return config.Load(g.configPath)
}

func (g *globalFlags) logger() (*zap.Logger, error) {
	if !g.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
