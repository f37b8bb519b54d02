package persistence

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/infrastructure/persistence/models"
	"github.com/petroflow/petroflow/pkg/mapping"
)

func toDomainMarketPrice(m *models.MarketPrice) (*marketprice.PriceRecord, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(m.Price)
	if err != nil {
		return nil, err
	}
	return &marketprice.PriceRecord{
		ID:            id,
		ProductCode:   m.ProductCode,
		ProductName:   m.ProductName,
		PriceDate:     m.PriceDate,
		ContractMonth: m.ContractMonth,
		PriceType:     marketprice.PriceType(m.PriceType),
		Price:         price,
		Currency:      m.Currency,
		Unit:          mapping.SQLNullStringToValue(m.Unit),
		Source:        mapping.SQLNullStringToValue(m.Source),
		Region:        mapping.SQLNullStringToValue(m.Region),
		ImportedAt:    mapping.SQLNullTimeToValue(m.ImportedAt),
		ImportedBy:    mapping.SQLNullStringToValue(m.ImportedBy),
		CreatedAt:     m.CreatedAt,
		CreatedBy:     mapping.SQLNullStringToValue(m.CreatedBy),
		UpdatedAt:     m.UpdatedAt,
		UpdatedBy:     mapping.SQLNullStringToValue(m.UpdatedBy),
		Deleted:       m.Deleted,
	}, nil
}
