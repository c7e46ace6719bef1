package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <program>",
	Short: "Execute a program and print the final stack",
	Long: `Execute a program and print the final stack, bottom first.

The program is either a TOML source file (.toml) or an encoded program as
written by "scalarvm asm". Use "-" to read an encoded program from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runProgram,
}

func runProgram(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(os.Stderr)
	registry, err := newRegistry(logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	chunks, err := loadProgram(args[0], registry)
	if err != nil {
		return err
	}
	target, err := selectedBackend(registry)
	if err != nil {
		return err
	}
	if target != nil {
		chunks = bytecode.Bind(chunks, target)
	}

	machine := vm.New(chunks, vm.WithLogger(logger))
	stats := bytecode.ComputeStats(chunks)
	logger.Debug().
		Str("machine", machine.ID().String()).
		Int("instructions", stats.InstructionCount).
		Int("max_stack", stats.MaxStackDepth).
		Msg("starting")
	if stats.UnderflowAt >= 0 {
		logger.Warn().Int("pc", stats.UnderflowAt).Msg("program pops an empty stack")
	}
	if err := machine.Run(ctx); err != nil {
		return err
	}
	output, err := getOutput(machine.Stack(), viper.GetString("output"))
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}
	return nil
}
