package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanngill/MediaUtility/pkg/mediautility"
)

func newExtractCommand(ctx *cliContext) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Print the direct media URL behind a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service()
			if err != nil {
				return err
			}
			defer svc.Close()

			runCtx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			ref, err := svc.Extract(runCtx, args[0], index)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), mediautility.UserMessage(err))
				return err
			}
			if ref.Title != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s)\n", ref.Title, ref.ExtractorID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref.StreamURL)
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "index", "i", 1, "Playlist entry (1-based)")
	return cmd
}
