package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanngill/MediaUtility/internal/config"
	"github.com/aidanngill/MediaUtility/pkg/logger"
	"github.com/aidanngill/MediaUtility/pkg/mediautility"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:           "mediautility-server",
		Short:         "HTTP API for identifying songs in media",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			log := logger.GetLogger()
			if level, ok := logger.ParseLevel(cfg.Logging.Level); ok {
				log.SetLevel(level)
			}
			if exists {
				log.Infof("Loaded config from %s", path)
			}

			opts := append(cfg.ServiceOptions(),
				mediautility.WithLogger(log),
				mediautility.WithDegradedHook(func(err error) {
					log.Errorf("Result cache unavailable, serving from memory: %v", err)
				}),
			)
			service, err := mediautility.NewService(opts...)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := NewServer(service, &ServerConfig{
				Port:           cfg.Server.Port,
				TempDir:        cfg.Extractor.TempDir,
				MaxUploadMB:    cfg.Server.MaxUploadMB,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			})
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP server port")
	return cmd
}
