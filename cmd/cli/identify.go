package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aidanngill/MediaUtility/pkg/mediautility"
	"github.com/aidanngill/MediaUtility/pkg/mediautility/timestamp"
	"github.com/aidanngill/MediaUtility/pkg/models"
)

func newIdentifyCommand(ctx *cliContext) *cobra.Command {
	var (
		start    string
		duration int
		index    int
		noCache  bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "identify <url|file>",
		Short: "Identify the song playing in a link or local file",
		Example: `  mediautility identify "https://www.youtube.com/watch?v=y6120QOlsfU&t=120"
  mediautility identify https://soundcloud.com/a/b --time 1:16:48
  mediautility identify ./clip.mp4 --time 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := mediautility.DefaultFindOptions()
			if start != "" {
				seconds, err := timestamp.ToSeconds(start)
				if err != nil || seconds < 0 {
					return fmt.Errorf("invalid --time %q: expected seconds or H:MM:SS", start)
				}
				opts.Start = &seconds
			}
			opts.Duration = duration
			opts.PlaylistIndex = index
			opts.UseCache = !noCache

			svc, err := ctx.service()
			if err != nil {
				return err
			}
			defer svc.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			runCtx, cancel := context.WithTimeout(runCtx, timeout)
			defer cancel()

			target := args[0]
			var song *models.Song
			if isLocalFile(target) {
				song, err = svc.FindFile(runCtx, target, opts)
			} else {
				song, err = svc.FindSong(runCtx, target, opts)
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), mediautility.UserMessage(err))
				return err
			}
			printSong(cmd.OutOrStdout(), song)
			return nil
		},
	}

	cmd.Flags().StringVarP(&start, "time", "t", "", "Sample start (seconds or H:MM:SS); defaults to the link's timestamp")
	cmd.Flags().IntVarP(&duration, "duration", "d", models.DefaultSampleSeconds, "Sample length in seconds")
	cmd.Flags().IntVarP(&index, "index", "i", 1, "Playlist entry to sample (1-based)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the result cache")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	return cmd
}

func isLocalFile(target string) bool {
	if strings.Contains(target, "://") {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && info.Mode().IsRegular()
}

func printSong(w io.Writer, song *models.Song) {
	if song == nil {
		fmt.Fprintln(w, mediautility.MsgNoSong)
		return
	}

	label := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", label("Song:    "), song.Title)
	fmt.Fprintf(w, "%s %s\n", label("Artist:  "), song.Artist)
	if song.Album != "" {
		fmt.Fprintf(w, "%s %s\n", label("Album:   "), song.Album)
	}
	if song.Label != "" {
		fmt.Fprintf(w, "%s %s\n", label("Label:   "), song.Label)
	}
	if song.ReleaseYear != "" {
		fmt.Fprintf(w, "%s %s\n", label("Released:"), song.ReleaseYear)
	}
	if song.AlbumArtURL != "" {
		fmt.Fprintf(w, "%s %s\n", label("Artwork: "), song.AlbumArtURL)
	}
}
