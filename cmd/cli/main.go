package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanngill/MediaUtility/internal/config"
	"github.com/aidanngill/MediaUtility/pkg/logger"
	"github.com/aidanngill/MediaUtility/pkg/mediautility"
)

type cliContext struct {
	configPath string
	verbose    bool

	// newService is replaced in tests
	newService func(cfg *config.Config, log *logger.Logger) (mediautility.Service, error)
}

func main() {
	if err := newRootCommand(&cliContext{newService: createService}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand(ctx *cliContext) *cobra.Command {
	root := &cobra.Command{
		Use:           "mediautility",
		Short:         "Find the song playing in a video or audio link",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Path to the configuration file")
	root.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newIdentifyCommand(ctx),
		newExtractCommand(ctx),
		newConfigCommand(),
	)
	return root
}

// createService builds the service from the loaded configuration.
func createService(cfg *config.Config, log *logger.Logger) (mediautility.Service, error) {
	opts := append(cfg.ServiceOptions(),
		mediautility.WithLogger(log),
		mediautility.WithDegradedHook(func(err error) {
			log.Warnf("Result cache unavailable, results will not persist: %v", err)
		}),
	)
	return mediautility.NewService(opts...)
}

// service loads the configuration and builds the service it describes.
func (c *cliContext) service() (mediautility.Service, error) {
	cfg, path, exists, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger()
	if level, ok := logger.ParseLevel(cfg.Logging.Level); ok {
		log.SetLevel(level)
	}
	if c.verbose {
		log.SetLevel(logger.DEBUG)
	}
	if exists {
		log.Debugf("Loaded config from %s", path)
	}

	svc, err := c.newService(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}
