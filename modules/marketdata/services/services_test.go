package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
)

// memRepo is an in-memory Repository for service tests. Not safe for
// concurrent use, which the sequential pipeline never needs.
type memRepo struct {
	records map[string]*marketprice.PriceRecord
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]*marketprice.PriceRecord{}}
}

func (m *memRepo) seed(code, month string, day time.Time, priceType marketprice.PriceType, price string) *marketprice.PriceRecord {
	record := &marketprice.PriceRecord{
		ID:            uuid.New(),
		ProductCode:   code,
		ContractMonth: month,
		PriceDate:     day,
		PriceType:     priceType,
		Price:         decimal.RequireFromString(price),
		Currency:      "USD",
	}
	m.records[record.Key()] = record
	return record
}

func (m *memRepo) GetByKey(_ context.Context, productCode, contractMonth string, date time.Time, priceType marketprice.PriceType) (*marketprice.PriceRecord, error) {
	probe := &marketprice.PriceRecord{
		ProductCode:   productCode,
		ContractMonth: contractMonth,
		PriceDate:     date,
		PriceType:     priceType,
	}
	if record, ok := m.records[probe.Key()]; ok {
		return record, nil
	}
	return nil, marketprice.ErrNotFound
}

func (m *memRepo) GetSpotByProductAndDate(ctx context.Context, productCode string, date time.Time) (*marketprice.PriceRecord, error) {
	return m.GetByKey(ctx, productCode, "", date, marketprice.PriceTypeSpot)
}

func (m *memRepo) GetPaginated(_ context.Context, params *marketprice.FindParams) ([]*marketprice.PriceRecord, error) {
	out := make([]*marketprice.PriceRecord, 0, len(m.records))
	for _, record := range m.records {
		if params.ProductCode != "" && record.ProductCode != params.ProductCode {
			continue
		}
		if params.PriceType != "" && record.PriceType != params.PriceType {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (m *memRepo) GetAll(_ context.Context) ([]*marketprice.PriceRecord, error) {
	out := make([]*marketprice.PriceRecord, 0, len(m.records))
	for _, record := range m.records {
		out = append(out, record)
	}
	return out, nil
}

func (m *memRepo) Create(_ context.Context, record *marketprice.PriceRecord) error {
	clone := *record
	m.records[record.Key()] = &clone
	return nil
}

func (m *memRepo) UpdatePrice(_ context.Context, id uuid.UUID, price decimal.Decimal, updatedBy string) error {
	for _, record := range m.records {
		if record.ID == id {
			record.Price = price
			record.UpdatedBy = updatedBy
			record.UpdatedAt = time.Now()
			return nil
		}
	}
	return marketprice.ErrNotFound
}

func (m *memRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(m.records))
	m.records = map[string]*marketprice.PriceRecord{}
	return n, nil
}

func (m *memRepo) DeleteByDateRange(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for key, record := range m.records {
		if !record.PriceDate.Before(from) && !record.PriceDate.After(to) {
			delete(m.records, key)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) DeleteByProduct(_ context.Context, productCode string) (int64, error) {
	var n int64
	for key, record := range m.records {
		if record.ProductCode == productCode {
			delete(m.records, key)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

// passUnitOfWork runs the callback directly; the in-memory repo has no
// transactions to manage.
type passUnitOfWork struct{}

func (passUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// failingUnitOfWork fails a fixed number of Do calls before succeeding.
type failingUnitOfWork struct {
	failures int
	calls    int
}

func (u *failingUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	u.calls++
	if u.calls <= u.failures {
		return fmt.Errorf("simulated commit failure %d", u.calls)
	}
	return fn(ctx)
}

// capturingBus records published events without dispatching them.
type capturingBus struct {
	published []any
}

func (b *capturingBus) Publish(args ...any) { b.published = append(b.published, args...) }

func (b *capturingBus) Subscribe(handler any) {}

func (b *capturingBus) Unsubscribe(handler any) {}

func (b *capturingBus) Clear() { b.published = nil }

func (b *capturingBus) SubscribersCount() int { return 0 }
