package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/scalarvm/bytecode"
	"github.com/deepnoodle-ai/scalarvm/dis"
)

var disCmd = &cobra.Command{
	Use:   "dis <program>",
	Short: "Disassemble a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		instructions, err := dis.Disassemble(chunks)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		dis.Print(instructions, out)
		if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
			printStats(out, bytecode.ComputeStats(chunks))
		}
		return nil
	},
}

func init() {
	disCmd.Flags().Bool("stats", false, "Print instruction and stack statistics")
}

func printStats(w io.Writer, stats bytecode.Stats) {
	fmt.Fprintf(w, "instructions: %d\n", stats.InstructionCount)
	fmt.Fprintf(w, "max stack depth: %d\n", stats.MaxStackDepth)
	fmt.Fprintf(w, "final stack depth: %d\n", stats.FinalStackDepth)
	if stats.UnderflowAt >= 0 {
		fmt.Fprintf(w, "stack underflow at: %d\n", stats.UnderflowAt)
	}
	names := make([]string, 0, len(stats.BackendCounts))
	for name := range stats.BackendCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "backend %s: %d\n", name, stats.BackendCounts[name])
	}
}
