package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/vocalens/internal/cli"
	"codeberg.org/snonux/vocalens/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create processor
	proc := processor.NewProcessor(flags)

	switch {
	case flags.PrintConfig:
		return proc.PrintConfig()
	case flags.ListModels:
		return proc.ListModels(ctx)
	case flags.Serve != "":
		return proc.Serve(ctx)
	case flags.BatchFile != "":
		return proc.ProcessBatch(ctx)
	case len(args) > 0:
		return proc.IdentifyImage(ctx, args[0])
	}

	// No input provided - run the interactive camera console by default
	if err := proc.RunInteractive(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
