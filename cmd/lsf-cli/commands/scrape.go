package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"lsfassist-backend/lib/configutil"
	"lsfassist-backend/lib/restyutil"
	"lsfassist-backend/lib/scrapers/lsf"
	"lsfassist-backend/lib/serviceutil"
	"lsfassist-backend/lib/sqliteutil"
	"lsfassist-backend/lib/timezone"
	"lsfassist-backend/services/roster"
	rosterdb "lsfassist-backend/services/roster/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Config struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	TotpSecret string `json:"totp_secret"`
	// ExpectedTerm pins the semester header to extract, e.g.
	// "Wintersemester 2025/26". Empty uses the built-in default
	// unless DeriveTerm is set.
	ExpectedTerm string `json:"expected_term"`
	// DeriveTerm derives the expected term from today's date.
	DeriveTerm bool   `json:"derive_term"`
	DebugDir   string `json:"debug_dir"`
}

var scrapeDb *string
var scrapePush *bool
var scrapeVerbose *bool

func init() {
	scrapeDb = scrapeCmd.Flags().String("db", "roster.db", "The database to record scrape results in.")
	scrapePush = scrapeCmd.Flags().Bool("push", false, "Record the scraped class list in the roster database.")
	scrapeVerbose = scrapeCmd.Flags().Bool("verbose", false, "Dump http exchanges of the lectures page fetch to disk.")
	rootCmd.AddCommand(scrapeCmd)
}

func expectedTerm(cfg Config) string {
	if cfg.ExpectedTerm != "" {
		return cfg.ExpectedTerm
	}
	if cfg.DeriveTerm {
		return lsf.CurrentTerm(timezone.Now())
	}
	return ""
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--push] [--db <path/to/roster.db>]",
	Short: "Logs into the portal and prints the current class list.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *scrapeVerbose {
			lsf.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/lsf"))
		}

		slog.Info("scraping using user", "username", cfg.Username)

		t1 := time.Now()
		result := lsf.GetCurrentClasses(cmd.Context(), lsf.Credentials{
			Username:   cfg.Username,
			Password:   cfg.Password,
			TotpSecret: cfg.TotpSecret,
		}, lsf.Options{
			ExpectedTerm: expectedTerm(cfg),
			DebugDir:     cfg.DebugDir,
		})
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		if !result.Success {
			serviceutil.Fatal("scrape failed", fmt.Errorf("%s", result.Error))
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Class"})
		for _, class := range result.CurrentClasses {
			t.AppendRow(table.Row{class.Name})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if !*scrapePush {
			return
		}

		names := make([]string, len(result.CurrentClasses))
		for i, class := range result.CurrentClasses {
			names[i] = class.Name
		}

		database, err := sqliteutil.OpenDB(rosterdb.Schema, *scrapeDb)
		if err != nil {
			serviceutil.Fatal("failed to open roster db", err)
		}
		defer database.Close()

		err = roster.NewService(database).Push(cmd.Context(), roster.PushRequest{
			User:    cfg.Username,
			Time:    timezone.Now(),
			Classes: names,
		})
		if err != nil {
			serviceutil.Fatal("failed to record scrape result", err)
		}
		slog.Info("recorded scrape result", "db", *scrapeDb, "classes", len(names))
	},
}
