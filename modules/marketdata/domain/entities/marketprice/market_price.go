package marketprice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Repository lookups when no non-deleted record
// matches.
var ErrNotFound = errors.New("price record not found")

type PriceType string

const (
	PriceTypeSpot              PriceType = "SPOT"
	PriceTypeFuturesSettlement PriceType = "FUTURES_SETTLEMENT"
)

// PriceRecord is one market price observation. The tuple (ProductCode,
// ContractMonth, PriceDate, PriceType) is unique across non-deleted records;
// ContractMonth is empty for spot observations.
type PriceRecord struct {
	ID            uuid.UUID
	ProductCode   string
	ProductName   string
	PriceDate     time.Time
	ContractMonth string
	PriceType     PriceType
	Price         decimal.Decimal
	Currency      string
	Unit          string
	Source        string
	Region        string
	ImportedAt    time.Time
	ImportedBy    string
	CreatedAt     time.Time
	CreatedBy     string
	UpdatedAt     time.Time
	UpdatedBy     string
	Deleted       bool
}

// Key renders the uniqueness tuple, used by the in-run duplicate guard.
func (p *PriceRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", p.ProductCode, p.ContractMonth, p.PriceDate.Format("2006-01-02"), p.PriceType)
}

type FindParams struct {
	ProductCode   string
	PriceType     PriceType
	ContractMonth string
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
	SortBy        []string
}

type Repository interface {
	GetByKey(ctx context.Context, productCode, contractMonth string, date time.Time, priceType PriceType) (*PriceRecord, error)
	GetSpotByProductAndDate(ctx context.Context, productCode string, date time.Time) (*PriceRecord, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*PriceRecord, error)
	GetAll(ctx context.Context) ([]*PriceRecord, error)
	Create(ctx context.Context, record *PriceRecord) error
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, updatedBy string) error
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByDateRange(ctx context.Context, from, to time.Time) (int64, error)
	DeleteByProduct(ctx context.Context, productCode string) (int64, error)
	Count(ctx context.Context) (int64, error)
}
