package feeds

import (
	"fmt"
	"strings"
)

// FeedKind is the declared format of an uploaded price file.
type FeedKind string

const (
	// FeedKindSpotSpreadsheet is the legacy daily-price workbook: one sheet,
	// date column plus one spot product per column.
	FeedKindSpotSpreadsheet FeedKind = "spot-spreadsheet"
	// FeedKindFuturesSpreadsheet is the exchange settlement workbook with
	// one sheet per futures grade.
	FeedKindFuturesSpreadsheet FeedKind = "futures-settlement-spreadsheet"
	// FeedKindUnifiedCSV is the cross-market export: date column plus one
	// column per product, contract-month suffixes allowed in headers.
	FeedKindUnifiedCSV FeedKind = "unified-csv"
	// FeedKindHistoricalCSV is the long-format archive export with explicit
	// ProductCode/PriceDate/Price columns.
	FeedKindHistoricalCSV FeedKind = "historical-csv"
)

func ParseFeedKind(s string) (FeedKind, error) {
	switch FeedKind(strings.ToLower(strings.TrimSpace(s))) {
	case FeedKindSpotSpreadsheet:
		return FeedKindSpotSpreadsheet, nil
	case FeedKindFuturesSpreadsheet:
		return FeedKindFuturesSpreadsheet, nil
	case FeedKindUnifiedCSV:
		return FeedKindUnifiedCSV, nil
	case FeedKindHistoricalCSV:
		return FeedKindHistoricalCSV, nil
	default:
		return "", fmt.Errorf("unknown feed kind %q", s)
	}
}

func (k FeedKind) IsSpreadsheet() bool {
	return k == FeedKindSpotSpreadsheet || k == FeedKindFuturesSpreadsheet
}

// sheetCandidates lists worksheet names to try per feed kind, newest format
// first, oldest legacy names last. The futures workbook carries one entry
// per grade; a grade whose candidates all miss is skipped with a message
// unless every grade is missing.
var sheetCandidates = map[FeedKind][]sheetTarget{
	FeedKindSpotSpreadsheet: {
		{label: "spot prices", candidates: []string{"Prices", "Daily Prices", "MOPS", "Market Data", "Sheet1"}},
	},
	FeedKindFuturesSpreadsheet: {
		{label: "380cst settlement", candidates: []string{"SG380", "380cst", "FO380", "380"}},
		{label: "180cst settlement", candidates: []string{"SG180", "180cst", "FO180", "180"}},
	},
}

type sheetTarget struct {
	label      string
	candidates []string
}
