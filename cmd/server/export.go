package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mapping-editor/internal/editor"
)

var (
	exportRows    string
	exportDetails string
	exportFormat  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a rendered mapping page as JSON or YAML",
	Long: `export loads the summary rows container and the detail panels container
of a rendered mapping page and prints the mapping each field serializes to.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportRows, "rows", "", "file holding the summary rows HTML")
	exportCmd.Flags().StringVar(&exportDetails, "details", "", "file holding the detail panels HTML")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format: json or yaml")
	_ = exportCmd.MarkFlagRequired("rows")
	_ = exportCmd.MarkFlagRequired("details")
}

func runExport(cmd *cobra.Command, _ []string) error {
	rows, err := os.ReadFile(exportRows)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	details, err := os.ReadFile(exportDetails)
	if err != nil {
		return fmt.Errorf("read details: %w", err)
	}

	ed := editor.New(nil, editor.Options{})
	defer ed.Close()
	if err := ed.Load(string(rows), string(details)); err != nil {
		return err
	}
	mapping := ed.Export()

	out := cmd.OutOrStdout()
	switch exportFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(mapping)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(mapping)
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
}
