package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/scalarvm/asm"
	"github.com/deepnoodle-ai/scalarvm/bytecode"
)

var asmCmd = &cobra.Command{
	Use:   "asm <source.toml>",
	Short: "Assemble a TOML source into an encoded program",
	Long: `Assemble a TOML source into an encoded program.

With --to-toml the input is an encoded program and the TOML source is
printed instead. Backend bindings are written by name.`,
	Args: cobra.ExactArgs(1),
	RunE: assemble,
}

func init() {
	asmCmd.Flags().String("out", "", "Output path (default stdout)")
	asmCmd.Flags().Bool("to-toml", false, "Convert an encoded program back to TOML")
}

func assemble(cmd *cobra.Command, args []string) error {
	logger := newLogger(os.Stderr)
	registry, err := newRegistry(logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	toTOML, _ := cmd.Flags().GetBool("to-toml")
	outPath, _ := cmd.Flags().GetString("out")

	var output []byte
	if toTOML {
		chunks, err := loadProgram(args[0], registry)
		if err != nil {
			return err
		}
		if output, err = asm.Format(chunks); err != nil {
			return err
		}
	} else {
		chunks, err := asm.ParseFile(args[0], registry)
		if err != nil {
			return err
		}
		if output, err = bytecode.EncodeProgram(chunks); err != nil {
			return err
		}
		if outPath == "" && isTerminal(os.Stdout) {
			return errors.New("refusing to write binary output to a terminal (use --out)")
		}
	}
	if outPath != "" {
		return os.WriteFile(outPath, output, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(output)
	return err
}
