package commands

import (
	"fmt"
	"os"
	"strings"

	"lsfassist-backend/lib/serviceutil"
	"lsfassist-backend/lib/sqliteutil"
	"lsfassist-backend/services/roster"
	rosterdb "lsfassist-backend/services/roster/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyDb *string
var historyUser *string

func init() {
	historyDb = historyCmd.Flags().String("db", "roster.db", "The database scrape results were recorded in.")
	historyUser = historyCmd.Flags().String("user", "", "The user whose history to show.")
	historyCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history --user <username> [--db <path/to/roster.db>]",
	Short: "Shows recorded class lists and what changed in the latest run.",
	Run: func(cmd *cobra.Command, args []string) {
		database, err := sqliteutil.OpenDB(rosterdb.Schema, *historyDb)
		if err != nil {
			serviceutil.Fatal("failed to open roster db", err)
		}
		defer database.Close()
		service := roster.NewService(database)

		snapshots, err := service.History(cmd.Context(), *historyUser)
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Classes"})
		for _, s := range snapshots {
			t.AppendRow(table.Row{
				s.Time.Format("2006-01-02 15:04"),
				strings.Join(s.Classes, "\n"),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		diff, ok, err := service.DiffLatest(cmd.Context(), *historyUser)
		if err != nil {
			serviceutil.Fatal("failed to diff latest runs", err)
		}
		if !ok {
			return
		}

		d := table.NewWriter()
		d.SetOutputMirror(os.Stdout)
		d.AppendHeader(table.Row{"Change", "Class"})
		for _, name := range diff.Added {
			d.AppendRow(table.Row{"added", name})
		}
		for _, name := range diff.Removed {
			d.AppendRow(table.Row{"removed", name})
		}
		for _, r := range diff.Renamed {
			d.AppendRow(table.Row{
				"renamed",
				fmt.Sprintf("%s -> %s (%.2f)", r.From, r.To, r.Similarity),
			})
		}
		d.SetStyle(table.StyleRounded)
		d.Render()
	},
}
