package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/GiGurra/boa/pkg/boa"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gcsuploader"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/period"
	"github.com/dvloznov/finance-insights/internal/report"
	"github.com/dvloznov/finance-insights/internal/stats"
	"github.com/dvloznov/finance-insights/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Params struct {
	User          string `descr:"User to report on" positional:"true"`
	Period        string `descr:"Reporting period" alts:"week,month,semester,year" default:"month"`
	From          string `descr:"Custom range start (YYYY-MM-DD), overrides period" optional:"true"`
	To            string `descr:"Custom range end (YYYY-MM-DD)" optional:"true"`
	Config        string `descr:"Path to YAML config file" optional:"true"`
	Xlsx          string `descr:"Write an XLSX workbook to this path" optional:"true"`
	Upload        bool   `descr:"Upload the workbook to the configured GCS bucket" default:"false"`
	Notifications bool   `descr:"Include the notification inbox" default:"false"`
	Color         bool   `descr:"Colorize table output" default:"false"`
}

func main() {
	boa.NewCmdT[Params]("report").
		WithShort("Print a period summary for one user").
		WithLong("Aggregates the user's ledger for a period, compares it with the previous period and prints the result as tables. Optionally writes an XLSX workbook and uploads it to Google Cloud Storage.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	cfg, err := config.Load(params.Config)
	if err != nil {
		return err
	}

	log, err := logger.Configure(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	sel, err := selection(params, time.Now())
	if err != nil {
		return err
	}

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.Stats.Summarize(ctx, params.User, sel)
	if err != nil {
		return err
	}

	opts := report.Options{Currency: a.Currency, Color: params.Color}
	report.WriteSummary(os.Stdout, sum, opts)

	var inbox []domain.Notification
	if params.Notifications {
		inbox, err = a.Repo.ListNotifications(ctx, params.User, store.NotificationFilter{})
		if err != nil {
			return err
		}
		report.WriteNotifications(os.Stdout, inbox, opts)
	}

	if params.Xlsx == "" && !params.Upload {
		return nil
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, sum, inbox); err != nil {
		return err
	}

	if params.Xlsx != "" {
		if err := os.WriteFile(params.Xlsx, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", params.Xlsx, err)
		}
		fmt.Printf("Wrote %s\n", params.Xlsx)
	}

	if params.Upload {
		if cfg.Report.Bucket == "" {
			return fmt.Errorf("upload requested but no report bucket configured (set GCS_BUCKET)")
		}
		label := string(sum.Period)
		if label == "" {
			label = "custom"
		}
		object := gcsuploader.ObjectName(params.User, label, time.Now(), "xlsx")
		uri, err := gcsuploader.NewGCSStorageService().Upload(ctx, cfg.Report.Bucket, object, xlsxContentType, &buf)
		if err != nil {
			return err
		}
		log.Info().Str("uri", uri).Msg("Uploaded report")
		fmt.Printf("Uploaded %s\n", uri)
	}

	return nil
}

func selection(params *Params, now time.Time) (stats.Selection, error) {
	sel := stats.Selection{Period: period.Parse(params.Period), AsOf: now}
	if params.From == "" && params.To == "" {
		return sel, nil
	}
	if params.From == "" || params.To == "" {
		return sel, fmt.Errorf("both from and to are required for a custom range")
	}

	from, err := civil.ParseDate(params.From)
	if err != nil {
		return sel, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := civil.ParseDate(params.To)
	if err != nil {
		return sel, fmt.Errorf("invalid to date: %w", err)
	}

	r := period.Custom(from.In(now.Location()), to.In(now.Location()))
	sel.Custom = &r
	return sel, nil
}
