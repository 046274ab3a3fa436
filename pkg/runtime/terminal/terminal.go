package terminal

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ses4j/ebird-statistical-report/pkg/runtime/terminal/commands"
)

// OpenFunc opens a registry for the config file at path.
type OpenFunc func(ctx context.Context, path string) (commands.Registry, error)

// CLI represents the command-line interface
type CLI struct {
	open       OpenFunc
	configPath string
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Open   OpenFunc
	Output io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{open: opts.Open}
	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, mainly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) opener(ctx context.Context) (commands.Registry, error) {
	return cli.open(ctx, cli.configPath)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ebird-report",
		Short:         "Annual eBird statistical report generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cli.configPath, "config", "", "Path to the YAML config file")

	cmd.AddCommand(commands.NewGenerateCmd(cli.opener))
	cmd.AddCommand(commands.NewLoadCmd(cli.opener))
	cmd.AddCommand(commands.NewNamesCmd(cli.opener))
	cmd.AddCommand(commands.NewRegionsCmd(cli.opener))

	return cmd
}
