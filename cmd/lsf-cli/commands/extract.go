package commands

import (
	"os"

	"lsfassist-backend/lib/scrapers/lsf"
	"lsfassist-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var extractFile *string
var extractTerm *string

func init() {
	extractFile = extractCmd.Flags().String("file", "", "A saved lectures page to extract classes from.")
	extractTerm = extractCmd.Flags().String("term", "", "The exact semester header to extract, e.g. 'Wintersemester 2025/26'.")
	extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}

// extractCmd runs the classifier against a page saved to disk, which
// is how broken extractions get debugged without logging in over and
// over.
var extractCmd = &cobra.Command{
	Use:   "extract --file <path/to/page.html> [--term <semester>]",
	Short: "Extracts the class list from a saved lectures page.",
	Run: func(cmd *cobra.Command, args []string) {
		markup, err := os.ReadFile(*extractFile)
		if err != nil {
			serviceutil.Fatal("failed to read page file", err)
		}

		names, err := lsf.ExtractCurrentClasses(cmd.Context(), string(markup), *extractTerm)
		if err != nil {
			serviceutil.Fatal("failed to extract classes", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Class"})
		for _, name := range names {
			t.AppendRow(table.Row{name})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
