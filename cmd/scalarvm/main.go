package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "scalarvm",
	Short:   "Run scalar arithmetic bytecode on software, native or GPU backends",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		processGlobalFlags()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var globalFlags = []string{"backend", "native-lib", "debug", "no-color", "output"}

// configure binds the global flags and SCALARVM_* environment variables.
func configure() {
	viper.SetEnvPrefix("scalarvm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range globalFlags {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("backend", "", "Bind every operand to this backend (software, native, gpu)")
	pf.String("native-lib", "", "Path to the native arithmetic library")
	pf.Bool("debug", false, "Log each executed instruction to stderr")
	pf.Bool("no-color", false, "Disable colored output")
	pf.StringP("output", "o", "", "Output format (json, text)")
	configure()
	rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"software", "native", "gpu"}, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.SetVersionTemplate("scalarvm {{.Version}} (" + commit + ", " + date + ")\n")

	rootCmd.AddCommand(runCmd, disCmd, asmCmd, backendsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
