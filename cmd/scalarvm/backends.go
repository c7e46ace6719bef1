package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepnoodle-ai/scalarvm/backend"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available compute backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(os.Stderr)
		registry, err := newRegistry(logger)
		if err != nil {
			return err
		}
		defer registry.Close()

		type entry struct {
			Name   string `json:"name"`
			Kind   string `json:"kind"`
			Detail string `json:"detail,omitempty"`
		}
		var entries []entry
		for _, name := range registry.Names() {
			b, _ := registry.Get(name)
			e := entry{Name: name, Kind: b.Kind().String()}
			switch b := b.(type) {
			case *backend.NativeLibrary:
				e.Detail = b.Path()
			case *backend.GPUKernel:
				e.Detail = b.Device().Name()
			}
			entries = append(entries, e)
		}
		out := cmd.OutOrStdout()
		if viper.GetString("output") == "json" {
			data, err := getOutputJSON(entries)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		for _, e := range entries {
			if e.Detail != "" {
				fmt.Fprintf(out, "%-10s %-10s %s\n", e.Name, e.Kind, e.Detail)
			} else {
				fmt.Fprintf(out, "%-10s %s\n", e.Name, e.Kind)
			}
		}
		return nil
	},
}
