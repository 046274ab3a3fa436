package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ses4j/ebird-statistical-report/pkg/server"
	"github.com/ses4j/ebird-statistical-report/pkg/services/config"
	"github.com/ses4j/ebird-statistical-report/pkg/services/registry"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve report sections as JSON",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reg, err := registry.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open registry: %w", err)
	}
	defer reg.Close()

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Generator: reg.Generator,
			Metrics:   reg.Metrics,
		},
	})

	return api.Start()
}
