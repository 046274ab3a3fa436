package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ses4j/ebird-statistical-report/pkg/runtime/terminal"
	"github.com/ses4j/ebird-statistical-report/pkg/runtime/terminal/commands"
	"github.com/ses4j/ebird-statistical-report/pkg/services/config"
	"github.com/ses4j/ebird-statistical-report/pkg/services/registry"
)

func main() {
	// A missing .env is fine, settings then come from the config file and the environment.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	cli := terminal.NewCLI(terminal.Options{
		Open:   open,
		Output: os.Stdout,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func open(ctx context.Context, path string) (commands.Registry, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return registry.Open(ctx, cfg)
}
