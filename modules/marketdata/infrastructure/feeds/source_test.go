package feeds

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseFeedKind(t *testing.T) {
	for _, s := range []string{"spot-spreadsheet", " Unified-CSV ", "historical-csv", "futures-settlement-spreadsheet"} {
		_, err := ParseFeedKind(s)
		require.NoError(t, err, "kind %q", s)
	}
	_, err := ParseFeedKind("streaming")
	require.Error(t, err)
}

func TestOpenRejectsEmptyContent(t *testing.T) {
	_, err := Open("prices.csv", FeedKindUnifiedCSV, nil)
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestOpenSpotWorkbookResolvesRankedCandidates(t *testing.T) {
	// Only the legacy name is present; resolution falls through to it.
	content := workbookBytes(t, map[string][][]string{
		"MOPS": {
			{"Date", "MOPS FO 380cst FOB Sg", "Brent"},
			{"2025-11-03", "82.15", "85.40"},
		},
	})

	src, err := Open("daily.xlsx", FeedKindSpotSpreadsheet, content)
	require.NoError(t, err)
	require.Len(t, src.Sheets, 1)
	require.Equal(t, "MOPS", src.Sheets[0].Name)
	require.Equal(t, []string{"Date", "MOPS FO 380cst FOB Sg", "Brent"}, src.Sheets[0].Header)
	require.Len(t, src.Sheets[0].Rows, 1)
	require.Empty(t, src.Skipped)
}

func TestOpenFuturesWorkbookSkipsMissingGrade(t *testing.T) {
	content := workbookBytes(t, map[string][][]string{
		"SG380": {
			{"Date", "SG380 2511", "SG380 2512"},
			{"2025-11-03", "85.40", "85.10"},
		},
	})

	src, err := Open("settle.xlsx", FeedKindFuturesSpreadsheet, content)
	require.NoError(t, err)
	require.Len(t, src.Sheets, 1)
	require.Equal(t, "SG380", src.Sheets[0].Name)
	require.Len(t, src.Skipped, 1)
	require.Contains(t, src.Skipped[0], "180cst settlement")
	require.Contains(t, src.Skipped[0], "SG180")
}

func TestOpenFuturesWorkbookAllSheetsMissingIsTerminal(t *testing.T) {
	content := workbookBytes(t, map[string][][]string{
		"Notes": {{"just", "text"}},
	})

	_, err := Open("settle.xlsx", FeedKindFuturesSpreadsheet, content)
	require.ErrorIs(t, err, ErrNoWorksheet)
	require.Contains(t, err.Error(), "SG380")
	require.Contains(t, err.Error(), "SG180")
}

func TestOpenWorkbookSheetNameMatchIsCaseInsensitive(t *testing.T) {
	content := workbookBytes(t, map[string][][]string{
		"prices": {
			{"Date", "Gasoil"},
			{"2025-11-03", "680.25"},
		},
	})

	src, err := Open("daily.xlsx", FeedKindSpotSpreadsheet, content)
	require.NoError(t, err)
	require.Equal(t, "prices", src.Sheets[0].Name)
}

func TestOpenCSV(t *testing.T) {
	content := []byte("Date,SG380 2511\n2025-11-03,85.40\n2025-11-04,85.95\n")
	src, err := Open("unified.csv", FeedKindUnifiedCSV, content)
	require.NoError(t, err)
	require.Len(t, src.Sheets, 1)
	require.Equal(t, []string{"Date", "SG380 2511"}, src.Sheets[0].Header)
	require.Len(t, src.Sheets[0].Rows, 2)
}

func TestOpenCSVStripsBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Brent\n2025-11-03,85.40\n")...)
	src, err := Open("unified.csv", FeedKindUnifiedCSV, content)
	require.NoError(t, err)
	require.Equal(t, "Date", src.Sheets[0].Header[0])
}

func TestOpenCSVRequiresTwoColumns(t *testing.T) {
	_, err := Open("unified.csv", FeedKindUnifiedCSV, []byte("Date\n2025-11-03\n"))
	require.ErrorIs(t, err, ErrTooFewColumns)

	_, err = Open("unified.csv", FeedKindUnifiedCSV, []byte("\n"))
	require.Error(t, err)
}
