package models

import (
	"database/sql"
	"time"
)

type MarketPrice struct {
	ID            string
	ProductCode   string
	ProductName   string
	PriceDate     time.Time
	ContractMonth string
	PriceType     string
	Price         string
	Currency      string
	Unit          sql.NullString
	Source        sql.NullString
	Region        sql.NullString
	ImportedAt    sql.NullTime
	ImportedBy    sql.NullString
	CreatedAt     time.Time
	CreatedBy     sql.NullString
	UpdatedAt     time.Time
	UpdatedBy     sql.NullString
	Deleted       bool
}
