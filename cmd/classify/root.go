package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var envFlag string
	var logLevelFlag string

	return newRootCommandWithContext(newCommandContext(&envFlag, &logLevelFlag), &envFlag, &logLevelFlag)
}

func newRootCommandWithContext(ctx *commandContext, envFlag, logLevelFlag *string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "classify",
		Short:         "Classify climate change tweets from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(envFlag, "env", "", "Environment file to load (defaults to APP_ENV or dev)")
	rootCmd.PersistentFlags().StringVar(logLevelFlag, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(newNormalizeCommand(ctx))
	rootCmd.AddCommand(newPredictCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))
	rootCmd.AddCommand(newDatasetCommand(ctx))

	return rootCmd
}
