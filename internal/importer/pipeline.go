// Package importer implements the streaming CSV bulk-import pipeline and
// its worker pool.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"product-importer-service/internal/events"
	"product-importer-service/internal/models"
	"product-importer-service/internal/repository"
	"product-importer-service/internal/webhooks"
)

// DefaultBatchSize is the number of rows flushed per transaction when no
// batch size is configured.
const DefaultBatchSize = 1000

// ProgressReporter receives the status updates a running import emits.
// *progress.Tracker is the production implementation.
type ProgressReporter interface {
	Set(taskID string, progress float64, status models.ImportStatus, message string)
}

// Pipeline streams a CSV file into the catalog: parse row by row,
// normalize, accumulate fixed-size batches, flush each batch in one
// transaction, and report progress after every flush. A malformed row is
// skipped; only file-level or storage-level failures abort the import.
type Pipeline struct {
	products   *repository.ProductsRepository
	webhooks   *repository.WebhooksRepository
	tracker    ProgressReporter
	dispatcher *webhooks.Dispatcher
	publisher  *events.Publisher
	batchSize  int
	logger     *logrus.Entry
}

// NewPipeline wires the pipeline. dispatcher and publisher may be nil;
// completion notifications are then skipped.
func NewPipeline(
	products *repository.ProductsRepository,
	webhooksRepo *repository.WebhooksRepository,
	tracker ProgressReporter,
	dispatcher *webhooks.Dispatcher,
	publisher *events.Publisher,
	batchSize int,
	logger *logrus.Logger,
) *Pipeline {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		products:   products,
		webhooks:   webhooksRepo,
		tracker:    tracker,
		dispatcher: dispatcher,
		publisher:  publisher,
		batchSize:  batchSize,
		logger:     logger.WithField("component", "import-pipeline"),
	}
}

// Run imports the file at filePath under taskID and returns the number of
// processed data rows. The task always ends in a terminal state: completed
// (progress 100) or failed (progress reset to 0, error text as message).
func (p *Pipeline) Run(ctx context.Context, taskID, filePath string) (int, error) {
	p.tracker.Set(taskID, 0, models.ImportStatusStarted, "File uploaded, starting import")

	processed, err := p.run(ctx, taskID, filePath)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"taskId": taskID,
			"file":   filePath,
		}).WithError(err).Error("Import failed")
		p.tracker.Set(taskID, 0, models.ImportStatusFailed, err.Error())
		return processed, err
	}

	p.tracker.Set(taskID, 100, models.ImportStatusCompleted,
		fmt.Sprintf("Import complete: %d rows", processed))
	p.logger.WithFields(logrus.Fields{
		"taskId":    taskID,
		"processed": processed,
	}).Info("Import completed")

	p.notifyCompleted(ctx, taskID, processed)
	return processed, nil
}

func (p *Pipeline) run(ctx context.Context, taskID, filePath string) (int, error) {
	// Best-effort row count: losing it only disables percentages, it never
	// fails the import.
	total, err := countDataRows(filePath)
	if err != nil {
		total = 0
	}

	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	p.tracker.Set(taskID, 1, models.ImportStatusParsing, "Parsing CSV and preparing batches")

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		// No header row at all: an empty upload is a valid zero-row import.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	batch := make([]models.UpsertCommand, 0, p.batchSize)
	processed := 0
	skipped := 0
	reported := 1.0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return processed, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}

		cmd, err := NormalizeRow(row)
		if err != nil {
			// Row-level problem: skip it, the rest of the file still imports.
			skipped++
			continue
		}
		batch = append(batch, cmd)

		if len(batch) >= p.batchSize {
			if err := p.flush(taskID, batch, &processed, total, false, &reported); err != nil {
				return processed, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := p.flush(taskID, batch, &processed, total, true, &reported); err != nil {
			return processed, err
		}
	}

	if skipped > 0 {
		p.logger.WithFields(logrus.Fields{
			"taskId":  taskID,
			"skipped": skipped,
		}).Warn("Skipped rows without a usable SKU")
	}

	return processed, nil
}

// flush commits one batch and reports progress. processed counts every row
// handed to the store, including individually skipped ones, mirroring file
// position rather than write success. reported carries the highest
// percentage emitted so far; emissions never go below it, keeping progress
// monotone until a failure resets it.
func (p *Pipeline) flush(taskID string, batch []models.UpsertCommand, processed *int, total int, last bool, reported *float64) error {
	if _, err := p.products.BatchUpsert(batch); err != nil {
		return fmt.Errorf("failed to persist batch: %w", err)
	}
	*processed += len(batch)

	pct := 0.0
	switch {
	case total > 0:
		pct = float64(*processed) / float64(total) * 100
		if pct > 100 {
			pct = 100
		}
	case last:
		pct = 100
	}
	if pct < *reported {
		pct = *reported
	}
	*reported = pct

	p.tracker.Set(taskID, pct, models.ImportStatusImporting,
		fmt.Sprintf("Processed %d rows", *processed))
	return nil
}

func (p *Pipeline) notifyCompleted(ctx context.Context, taskID string, processed int) {
	if p.publisher != nil {
		p.publisher.PublishImportCompleted(taskID, processed)
	}
	if p.dispatcher == nil || p.webhooks == nil {
		return
	}
	hooks, err := p.webhooks.ListEnabledWebhooks()
	if err != nil {
		p.logger.WithError(err).Warn("Failed to load webhooks for import notification")
		return
	}
	if len(hooks) == 0 {
		return
	}
	p.dispatcher.NotifyImportCompleted(ctx, hooks, taskID, processed)
}

// countDataRows counts the newline-delimited data rows in the file, not
// counting the header line.
func countDataRows(filePath string) (int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	lines := 0
	sawAny := false
	endsWithNewline := false
	buf := make([]byte, 32*1024)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			sawAny = true
			for _, b := range buf[:n] {
				if b == '\n' {
					lines++
				}
			}
			endsWithNewline = buf[n-1] == '\n'
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if sawAny && !endsWithNewline {
		lines++
	}

	// First line is the header.
	if lines > 0 {
		lines--
	}
	return lines, nil
}
