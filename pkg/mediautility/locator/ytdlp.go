package locator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

// Request describes a single yt-dlp invocation.
type Request struct {
	URL           string
	PlaylistIndex int
	Format        string
	MetadataOnly  bool   // print the info JSON instead of downloading
	Output        string // output template, downloads only
}

// Runner executes yt-dlp and returns its standard output.
type Runner interface {
	Run(ctx context.Context, req Request) (string, error)
}

// YTDLPRunner runs the yt-dlp binary through go-ytdlp.
type YTDLPRunner struct {
	// Executable overrides the yt-dlp binary. Empty means resolve from PATH
	// or the go-ytdlp cache.
	Executable string
	// AutoInstall downloads yt-dlp into the go-ytdlp cache on first use.
	AutoInstall bool

	installOnce sync.Once
	installErr  error
}

func (r *YTDLPRunner) install(ctx context.Context) error {
	r.installOnce.Do(func() {
		if !r.AutoInstall || r.Executable != "" {
			return
		}
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			r.installErr = fmt.Errorf("installing yt-dlp: %w", err)
		}
	})
	return r.installErr
}

func (r *YTDLPRunner) command(req Request) *ytdlp.Command {
	cmd := ytdlp.New().NoWarnings().NoProgress()
	if r.Executable != "" {
		cmd = cmd.SetExecutable(r.Executable)
	}
	if req.Format != "" {
		cmd = cmd.Format(req.Format)
	}
	if req.PlaylistIndex > 0 {
		cmd = cmd.PlaylistItems(strconv.Itoa(req.PlaylistIndex))
	}
	if req.MetadataOnly {
		cmd = cmd.DumpSingleJSON().SkipDownload()
	} else if req.Output != "" {
		cmd = cmd.Output(req.Output)
	}
	return cmd
}

// Run implements Runner.
func (r *YTDLPRunner) Run(ctx context.Context, req Request) (string, error) {
	if err := r.install(ctx); err != nil {
		return "", err
	}

	res, err := r.command(req).Run(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		stderr := ""
		if res != nil {
			stderr = strings.TrimSpace(res.Stderr)
		}
		if stderr != "" {
			return "", fmt.Errorf("yt-dlp failed: %w\nstderr: %s", err, stderr)
		}
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}
	if res == nil {
		return "", nil
	}
	return res.Stdout, nil
}
