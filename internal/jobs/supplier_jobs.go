package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/erpsync/internal/cache"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/export"
	"github.com/andresuchdata/erpsync/internal/mail"
	"github.com/andresuchdata/erpsync/internal/pipeline"
	"github.com/andresuchdata/erpsync/internal/storage"
	"github.com/andresuchdata/erpsync/internal/supplier"
)

// SupplierSync scrapes the supplier catalog, upserts it and records an alert
// for every known SKU whose availability or price changed.
func (d *Deps) SupplierSync() pipeline.Job {
	return job{name: SupplierSync, run: func(ctx context.Context) (pipeline.Result, error) {
		current, err := d.Supplier.Catalog(ctx)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error scraping supplier catalog: %w", err)
		}
		previous, err := d.Suppliers.Snapshot(ctx)
		if err != nil {
			return pipeline.Result{}, err
		}

		merged, alerts := supplier.Reconcile(previous, dedupeCatalog(current), d.clock().UTC())
		n, err := d.Suppliers.SaveCatalog(ctx, merged, alerts)
		if err != nil {
			return pipeline.Result{}, err
		}
		log.Info().Str("job", SupplierSync).Int("products", n).Int("alerts", len(alerts)).Msg("supplier catalog stored")

		return pipeline.Result{
			Rows:     n,
			Datasets: []string{cache.DatasetSupplier, cache.DatasetSupplierAlerts},
		}, nil
	}}
}

// SupplierAlertMail mails the unsent supplier alerts as HTML tables and
// marks them sent once every part went out.
func (d *Deps) SupplierAlertMail() pipeline.Job {
	return job{name: SupplierAlertMail, run: func(ctx context.Context) (pipeline.Result, error) {
		rows, err := d.Suppliers.Unsent(ctx, d.Options.MailBatch)
		if err != nil {
			return pipeline.Result{}, err
		}
		if len(rows) == 0 {
			return pipeline.Result{}, nil
		}

		messages, err := mail.Compose(rows, d.Options.MailSubject, d.Options.MailMaxRows, d.clock())
		if err != nil {
			return pipeline.Result{}, err
		}

		var ids []int64
		for i, msg := range messages {
			if err := d.Mailer.Send(ctx, msg); err != nil {
				return pipeline.Result{}, fmt.Errorf("error sending part %d/%d: %w", i+1, len(messages), err)
			}
			ids = append(ids, msg.IDs...)
		}

		if err := d.Suppliers.MarkSent(ctx, ids); err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Result{Rows: len(ids), Datasets: []string{cache.DatasetSupplierAlerts}}, nil
	}}
}

// SuggestionsExport uploads the suggestions workbook of the day. A disabled
// storage backend skips the run.
func (d *Deps) SuggestionsExport() pipeline.Job {
	return job{name: SuggestionsExport, run: func(ctx context.Context) (pipeline.Result, error) {
		suggestions, err := d.Stock.ListSuggestions(ctx, domain.DashboardFilter{})
		if err != nil {
			return pipeline.Result{}, err
		}

		data, err := export.Workbook(suggestions, nil)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("error building workbook: %w", err)
		}

		prefix := d.Options.ExportPrefix
		if prefix == "" {
			prefix = "suggestions"
		}
		key := fmt.Sprintf("%s/%s.xlsx", prefix, d.clock().Format("2006-01-02"))
		if err := d.Storage.UploadObject(ctx, key, data, export.ContentType); err != nil {
			if errors.Is(err, storage.ErrDisabled) {
				log.Warn().Str("job", SuggestionsExport).Msg("object storage disabled, export skipped")
				return pipeline.Result{}, nil
			}
			return pipeline.Result{}, fmt.Errorf("error uploading %s: %w", key, err)
		}

		log.Info().Str("job", SuggestionsExport).Str("key", key).Int("bytes", len(data)).Msg("suggestions exported")
		return pipeline.Result{Rows: len(suggestions)}, nil
	}}
}
