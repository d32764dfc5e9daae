package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bueno/internal/ext"
)

var extCmd = &cobra.Command{
	Use:   "ext",
	Short: "Print the native extension manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFormat, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		manifest := ext.Manifest()
		if err := ext.Validate(manifest...); err != nil {
			return err
		}
		switch strings.ToLower(outputFormat) {
		case "text":
			renderManifestText(cmd.OutOrStdout(), manifest)
			return nil
		case "json":
			return renderManifestJSON(cmd.OutOrStdout(), manifest)
		default:
			return fmt.Errorf("unsupported format %q (must be text or json)", outputFormat)
		}
	},
}

func init() {
	extCmd.Flags().String("format", "text", "output format (text|json)")
}

func renderManifestText(out io.Writer, manifest []ext.Extension) {
	name := color.New(color.Bold)
	for i, e := range manifest {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s  entry %s\n", name.Sprint(e.Name), e.EntryPoint)
		if len(e.Ops) > 0 {
			fmt.Fprintf(out, "  ops: %s\n", strings.Join(e.Ops, ", "))
		}
		fmt.Fprintln(out, "  scripts:")
		for n, s := range e.Scripts {
			fmt.Fprintf(out, "    %2d. %s\n", n+1, s)
		}
	}
}

func renderManifestJSON(out io.Writer, manifest []ext.Extension) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(manifest)
}
