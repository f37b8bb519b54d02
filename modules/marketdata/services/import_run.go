package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/pkg/metrics"
)

// Explicit formats are tried in order; the generic day-first parse and the
// Excel serial interpretation are last resorts for hand-edited sheets.
var dateFormats = []string{
	"2006-01-02",
	"2006/1/2",
	"02-Jan-06",
	"2-Jan-06",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
}

// excelEpoch is day zero of the 1900 date system used by xlsx serials.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func parseRowDate(cell string) (time.Time, bool) {
	text := strings.TrimSpace(cell)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Truncate(24 * time.Hour), true
		}
	}
	if serial, err := strconv.ParseFloat(text, 64); err == nil && serial > 0 && serial < 200000 {
		return excelEpoch.AddDate(0, 0, int(serial)), true
	}
	return time.Time{}, false
}

// parsePriceCell tries a typed numeric read first, then a cleaned-up string
// decimal. The second return is false for blank or malformed cells, which
// the walker treats as "no observation".
func parsePriceCell(cell string) (decimal.Decimal, bool) {
	text := strings.TrimSpace(cell)
	if text == "" {
		return decimal.Decimal{}, false
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return decimal.NewFromFloat(f), true
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(text)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

type stagedUpdate struct {
	record *marketprice.PriceRecord
	price  decimal.Decimal
}

// importRun holds the mutable state of one ingestion: the staging buffers,
// the in-run duplicate guard and the error counter. It is not safe for
// concurrent use; the pipeline is deliberately sequential.
type importRun struct {
	repo       marketprice.Repository
	uow        UnitOfWork
	logger     *logrus.Logger
	result     *marketprice.ImportResult
	importedBy string
	now        time.Time

	tolerance    decimal.Decimal
	batchSize    int
	errorCeiling int
	retries      int
	backoff      time.Duration

	creates []*marketprice.PriceRecord
	updates []stagedUpdate
	seen    map[string]struct{}

	errorCount int
	halted     bool
}

// rowError registers a row-level problem and reports whether the error
// ceiling was reached, which halts further row processing.
func (r *importRun) rowError(format string, args ...any) bool {
	r.result.AddError(format, args...)
	r.errorCount++
	if r.errorCount >= r.errorCeiling && !r.halted {
		r.halted = true
		r.result.AddMessage("Import halted: error ceiling of %d reached", r.errorCeiling)
	}
	return r.halted
}

// upsert resolves one observation against the store and the in-run guard,
// staging a create or an update. Lookups go through the repository; nothing
// is written until flush.
func (r *importRun) upsert(ctx context.Context, record *marketprice.PriceRecord) error {
	key := record.Key()
	r.result.RecordsProcessed++

	existing, err := r.repo.GetByKey(ctx, record.ProductCode, record.ContractMonth, record.PriceDate, record.PriceType)
	switch {
	case err == nil:
		diff := existing.Price.Sub(record.Price).Abs()
		if diff.Cmp(r.tolerance) <= 0 {
			r.result.RecordsSkipped++
			return nil
		}
		r.updates = append(r.updates, stagedUpdate{record: existing, price: record.Price})
		r.result.RecordsUpdated++
		r.result.Observe(record, false)
	case errors.Is(err, marketprice.ErrNotFound):
		if _, dup := r.seen[key]; dup {
			r.result.AddMessage("Duplicate key in batch skipped: %s", key)
			r.result.RecordsSkipped++
			return nil
		}
		r.seen[key] = struct{}{}
		r.creates = append(r.creates, record)
		r.result.RecordsCreated++
		r.result.Observe(record, true)
	default:
		return errors.Wrap(err, "price lookup failed")
	}

	if len(r.creates)+len(r.updates) >= r.batchSize {
		return r.flush(ctx)
	}
	return nil
}

// flush commits every staged create and update as one transaction, retrying
// the whole batch with exponential backoff before giving up. Buffers are
// cleared only after a successful commit.
func (r *importRun) flush(ctx context.Context) error {
	if len(r.creates) == 0 && len(r.updates) == 0 {
		return nil
	}

	var lastErr error
	delay := r.backoff
	for attempt := 1; attempt <= r.retries; attempt++ {
		lastErr = r.uow.Do(ctx, func(txCtx context.Context) error {
			for _, record := range r.creates {
				if err := r.repo.Create(txCtx, record); err != nil {
					return err
				}
			}
			for _, upd := range r.updates {
				if err := r.repo.UpdatePrice(txCtx, upd.record.ID, upd.price, r.importedBy); err != nil {
					return err
				}
			}
			return nil
		})
		if lastErr == nil {
			r.creates = r.creates[:0]
			r.updates = r.updates[:0]
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < r.retries {
			metrics.FlushRetries.Inc()
			if r.logger != nil {
				r.logger.WithError(lastErr).Warnf("price batch commit failed, retrying in %s (attempt %d/%d)", delay, attempt, r.retries)
			}
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return errors.Wrapf(lastErr, "batch commit failed after %d attempts", r.retries)
}
