package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/pkg/eventbus"
)

// MarketPriceService exposes read access and the administrative purge
// operations over stored price records.
type MarketPriceService struct {
	repo      marketprice.Repository
	uow       UnitOfWork
	publisher eventbus.EventBus
}

func NewMarketPriceService(repo marketprice.Repository, uow UnitOfWork, publisher eventbus.EventBus) *MarketPriceService {
	return &MarketPriceService{
		repo:      repo,
		uow:       uow,
		publisher: publisher,
	}
}

func (s *MarketPriceService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *MarketPriceService) GetAll(ctx context.Context) ([]*marketprice.PriceRecord, error) {
	return s.repo.GetAll(ctx)
}

func (s *MarketPriceService) GetPaginated(ctx context.Context, params *marketprice.FindParams) ([]*marketprice.PriceRecord, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *MarketPriceService) GetSpot(ctx context.Context, productCode string, date time.Time) (*marketprice.PriceRecord, error) {
	return s.repo.GetSpotByProductAndDate(ctx, productCode, date)
}

func (s *MarketPriceService) DeleteAll(ctx context.Context, purgedBy string) (int64, error) {
	var removed int64
	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		var delErr error
		removed, delErr = s.repo.DeleteAll(txCtx)
		return delErr
	})
	if err != nil {
		return 0, errors.Wrap(err, "delete all prices failed")
	}
	s.publishPurge(&marketprice.PricesPurgedEvent{Removed: removed, PurgedBy: purgedBy})
	return removed, nil
}

func (s *MarketPriceService) DeleteByDateRange(ctx context.Context, dto *marketprice.DeleteRangeDTO, purgedBy string) (int64, error) {
	if errs, ok := dto.Ok(ctx); !ok {
		return 0, errs
	}
	var removed int64
	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		var delErr error
		removed, delErr = s.repo.DeleteByDateRange(txCtx, dto.From, dto.To)
		return delErr
	})
	if err != nil {
		return 0, errors.Wrap(err, "delete prices by date range failed")
	}
	s.publishPurge(&marketprice.PricesPurgedEvent{From: &dto.From, To: &dto.To, Removed: removed, PurgedBy: purgedBy})
	return removed, nil
}

func (s *MarketPriceService) DeleteByProduct(ctx context.Context, productCode, purgedBy string) (int64, error) {
	var removed int64
	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		var delErr error
		removed, delErr = s.repo.DeleteByProduct(txCtx, productCode)
		return delErr
	})
	if err != nil {
		return 0, errors.Wrapf(err, "delete prices for %s failed", productCode)
	}
	s.publishPurge(&marketprice.PricesPurgedEvent{ProductCode: productCode, Removed: removed, PurgedBy: purgedBy})
	return removed, nil
}

func (s *MarketPriceService) publishPurge(ev *marketprice.PricesPurgedEvent) {
	if s.publisher != nil {
		s.publisher.Publish(ev)
	}
}
