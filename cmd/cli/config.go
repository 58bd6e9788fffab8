package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanngill/MediaUtility/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Print a sample configuration, or write it with --path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				fmt.Fprint(cmd.OutOrStdout(), config.Sample())
				return nil
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&path, "path", "p", "", "Write the sample to this file")

	cmd.AddCommand(initCmd)
	return cmd
}
