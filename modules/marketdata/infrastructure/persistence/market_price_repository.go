package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/infrastructure/persistence/models"
	"github.com/petroflow/petroflow/pkg/composables"
)

var (
	ErrPriceNotFound = marketprice.ErrNotFound
)

const (
	marketPriceFindQuery = `
		SELECT id, product_code, product_name, price_date, contract_month, price_type,
		       price::text, currency, unit, source, region,
		       imported_at, imported_by, created_at, created_by, updated_at, updated_by, deleted
		FROM market_prices`

	// The partial unique index on the key tuple makes concurrent imports
	// safe: the second writer updates instead of violating the invariant.
	marketPriceInsertQuery = `
		INSERT INTO market_prices (
			id, product_code, product_name, price_date, contract_month, price_type,
			price, currency, unit, source, region,
			imported_at, imported_by, created_at, created_by, updated_at, updated_by, deleted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE)
		ON CONFLICT (product_code, contract_month, price_date, price_type) WHERE NOT deleted
		DO UPDATE SET price = EXCLUDED.price, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`
)

type MarketPriceRepository struct{}

func NewMarketPriceRepository() marketprice.Repository {
	return &MarketPriceRepository{}
}

func (r *MarketPriceRepository) GetByKey(ctx context.Context, productCode, contractMonth string, date time.Time, priceType marketprice.PriceType) (*marketprice.PriceRecord, error) {
	query := marketPriceFindQuery + `
		WHERE product_code = $1 AND contract_month = $2 AND price_date = $3 AND price_type = $4 AND NOT deleted`
	records, err := r.queryPrices(ctx, query, productCode, contractMonth, date, string(priceType))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrPriceNotFound
	}
	return records[0], nil
}

func (r *MarketPriceRepository) GetSpotByProductAndDate(ctx context.Context, productCode string, date time.Time) (*marketprice.PriceRecord, error) {
	return r.GetByKey(ctx, productCode, "", date, marketprice.PriceTypeSpot)
}

func (r *MarketPriceRepository) GetPaginated(ctx context.Context, params *marketprice.FindParams) ([]*marketprice.PriceRecord, error) {
	query := marketPriceFindQuery + ` WHERE NOT deleted`
	args := []any{}
	idx := 1

	if params.ProductCode != "" {
		query += fmt.Sprintf(" AND product_code = $%d", idx)
		args = append(args, params.ProductCode)
		idx++
	}
	if params.PriceType != "" {
		query += fmt.Sprintf(" AND price_type = $%d", idx)
		args = append(args, string(params.PriceType))
		idx++
	}
	if params.ContractMonth != "" {
		query += fmt.Sprintf(" AND contract_month = $%d", idx)
		args = append(args, params.ContractMonth)
		idx++
	}
	if params.From != nil {
		query += fmt.Sprintf(" AND price_date >= $%d", idx)
		args = append(args, *params.From)
		idx++
	}
	if params.To != nil {
		query += fmt.Sprintf(" AND price_date <= $%d", idx)
		args = append(args, *params.To)
		idx++
	}

	query += " ORDER BY price_date DESC, product_code"
	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, params.Limit)
		idx++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", idx)
		args = append(args, params.Offset)
	}

	return r.queryPrices(ctx, query, args...)
}

func (r *MarketPriceRepository) GetAll(ctx context.Context) ([]*marketprice.PriceRecord, error) {
	return r.queryPrices(ctx, marketPriceFindQuery+" WHERE NOT deleted ORDER BY price_date, product_code")
}

func (r *MarketPriceRepository) Create(ctx context.Context, record *marketprice.PriceRecord) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err = tx.Exec(
		ctx,
		marketPriceInsertQuery,
		record.ID.String(),
		record.ProductCode,
		record.ProductName,
		record.PriceDate,
		record.ContractMonth,
		string(record.PriceType),
		record.Price.String(),
		record.Currency,
		nullable(record.Unit),
		nullable(record.Source),
		nullable(record.Region),
		nullableTime(record.ImportedAt),
		nullable(record.ImportedBy),
		record.CreatedAt,
		nullable(record.CreatedBy),
		record.UpdatedAt,
		nullable(record.UpdatedBy),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert market price")
	}
	return nil
}

func (r *MarketPriceRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal, updatedBy string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(
		ctx,
		`UPDATE market_prices SET price = $1, updated_at = $2, updated_by = $3 WHERE id = $4 AND NOT deleted`,
		price.String(),
		time.Now(),
		nullable(updatedBy),
		id.String(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update market price")
	}
	if tag.RowsAffected() == 0 {
		return ErrPriceNotFound
	}
	return nil
}

func (r *MarketPriceRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.execDelete(ctx, `DELETE FROM market_prices`)
}

func (r *MarketPriceRepository) DeleteByDateRange(ctx context.Context, from, to time.Time) (int64, error) {
	return r.execDelete(ctx, `DELETE FROM market_prices WHERE price_date >= $1 AND price_date <= $2`, from, to)
}

func (r *MarketPriceRepository) DeleteByProduct(ctx context.Context, productCode string) (int64, error) {
	return r.execDelete(ctx, `DELETE FROM market_prices WHERE product_code = $1`, productCode)
}

func (r *MarketPriceRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM market_prices WHERE NOT deleted`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count market prices")
	}
	return count, nil
}

func (r *MarketPriceRepository) execDelete(ctx context.Context, query string, args ...any) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete market prices")
	}
	return tag.RowsAffected(), nil
}

func (r *MarketPriceRepository) queryPrices(ctx context.Context, query string, args ...any) ([]*marketprice.PriceRecord, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var records []*marketprice.PriceRecord
	for rows.Next() {
		var m models.MarketPrice
		if err := rows.Scan(
			&m.ID,
			&m.ProductCode,
			&m.ProductName,
			&m.PriceDate,
			&m.ContractMonth,
			&m.PriceType,
			&m.Price,
			&m.Currency,
			&m.Unit,
			&m.Source,
			&m.Region,
			&m.ImportedAt,
			&m.ImportedBy,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.UpdatedAt,
			&m.UpdatedBy,
			&m.Deleted,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan market price row")
		}
		record, err := toDomainMarketPrice(&m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map market price row")
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return records, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
