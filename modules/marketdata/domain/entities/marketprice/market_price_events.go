package marketprice

import "time"

// ImportCompletedEvent is published on the application event bus after every
// run, successful or not.
type ImportCompletedEvent struct {
	FileName   string
	FeedKind   string
	ImportedBy string
	Result     *ImportResult
	FinishedAt time.Time
}

// PricesPurgedEvent is published when an administrative delete removes
// records outside the import path.
type PricesPurgedEvent struct {
	ProductCode string
	From        *time.Time
	To          *time.Time
	Removed     int64
	PurgedBy    string
}
