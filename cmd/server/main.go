package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mapping-editor",
	Short: "Mapping file editor service",
	Long: `mapping-editor keeps mapping file editing sessions: the summary rows and
detail panels of every field, the edit lock, hover disclosure, completion
file generation and save.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./editor.yaml)")
	rootCmd.AddCommand(serveCmd, exportCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
