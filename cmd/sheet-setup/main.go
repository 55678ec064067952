// Command sheet-setup prepares the Google Sheets mirror: it creates the
// spreadsheet when SPREADSHEET_ID is empty, then writes and formats the
// header row the server appends under.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/formvcm/postulaciones/internal/config"
	"github.com/formvcm/postulaciones/internal/logging"
	"github.com/formvcm/postulaciones/internal/sinks/sheets"
)

func main() {
	title := flag.String("title", "Postulaciones Foro VcM 2025", "title for a newly created spreadsheet")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, *title); err != nil {
		slog.Error("sheet setup failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, title string) error {
	client, err := sheets.NewClientFromFile(ctx, cfg.Sheets.CredentialsPath)
	if err != nil {
		return err
	}

	sheetName, _, _ := strings.Cut(cfg.Sheets.Range, "!")

	id := cfg.Sheets.SpreadsheetID
	if id == "" {
		id, err = client.CreateSpreadsheet(ctx, title, sheetName)
		if err != nil {
			return err
		}
		slog.Info("spreadsheet created", "spreadsheet_id", id)
	}

	if err := client.WriteHeader(ctx, id, sheetName); err != nil {
		return err
	}

	fmt.Printf("Hoja lista: https://docs.google.com/spreadsheets/d/%s\n", id)
	fmt.Printf("Columnas: %d (layout v%d)\n", len(sheets.Header), sheets.RowLayoutVersion)
	fmt.Printf("SPREADSHEET_ID=%s\n", id)
	if client.ServiceAccount != "" {
		fmt.Printf("Comparta la hoja con la cuenta de servicio %s (Editor)\n", client.ServiceAccount)
	}
	return nil
}
