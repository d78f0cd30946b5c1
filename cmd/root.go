package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/camsentry/camsentry/cmd/cleanup"
	"github.com/camsentry/camsentry/cmd/pool"
	"github.com/camsentry/camsentry/cmd/server"
	"github.com/camsentry/camsentry/cmd/snapshot"
	"github.com/camsentry/camsentry/internal/buildinfo"
	"github.com/camsentry/camsentry/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "camsentry",
		Short:   "CamSentry recording engine CLI",
		Version: buildinfo.String(),
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		server.Command(settings),
		cleanup.Command(settings),
		pool.Command(settings),
		snapshot.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags configures the global flags for the root command.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
