package marketprice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const PreviewCap = 100

// PricePreview is the capped per-record echo returned to the uploader.
type PricePreview struct {
	ProductCode   string          `json:"productCode"`
	PriceDate     time.Time       `json:"priceDate"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	PriceType     PriceType       `json:"priceType"`
	ContractMonth string          `json:"contractMonth,omitempty"`
}

type Coverage struct {
	EarliestDate time.Time `json:"earliestDate"`
	LatestDate   time.Time `json:"latestDate"`
	DateCount    int       `json:"dateCount"`
	ProductCount int       `json:"productCount"`
}

// ImportResult summarizes one ingestion run. It is assembled incrementally
// while the run progresses and returned to the caller even when the run
// fails partway.
type ImportResult struct {
	Success          bool           `json:"success"`
	RecordsCreated   int            `json:"recordsCreated"`
	RecordsUpdated   int            `json:"recordsUpdated"`
	RecordsSkipped   int            `json:"recordsSkipped"`
	RecordsProcessed int            `json:"recordsProcessed"`
	Messages         []string       `json:"messages"`
	Errors           []string       `json:"errors"`
	Preview          []PricePreview `json:"preview"`
	Coverage         Coverage       `json:"coverage"`

	dates    map[string]struct{}
	products map[string]struct{}
}

func NewImportResult() *ImportResult {
	return &ImportResult{
		Messages: []string{},
		Errors:   []string{},
		Preview:  []PricePreview{},
		dates:    map[string]struct{}{},
		products: map[string]struct{}{},
	}
}

func (r *ImportResult) AddMessage(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *ImportResult) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Observe folds a record into the coverage stats and, for creates, the
// capped preview list.
func (r *ImportResult) Observe(record *PriceRecord, created bool) {
	day := record.PriceDate.Format("2006-01-02")
	if _, seen := r.dates[day]; !seen {
		r.dates[day] = struct{}{}
		if r.Coverage.EarliestDate.IsZero() || record.PriceDate.Before(r.Coverage.EarliestDate) {
			r.Coverage.EarliestDate = record.PriceDate
		}
		if record.PriceDate.After(r.Coverage.LatestDate) {
			r.Coverage.LatestDate = record.PriceDate
		}
		r.Coverage.DateCount = len(r.dates)
	}
	if _, seen := r.products[record.ProductCode]; !seen {
		r.products[record.ProductCode] = struct{}{}
		r.Coverage.ProductCount = len(r.products)
	}

	if created && len(r.Preview) < PreviewCap {
		r.Preview = append(r.Preview, PricePreview{
			ProductCode:   record.ProductCode,
			PriceDate:     record.PriceDate,
			Price:         record.Price,
			Currency:      record.Currency,
			PriceType:     record.PriceType,
			ContractMonth: record.ContractMonth,
		})
	}
}
