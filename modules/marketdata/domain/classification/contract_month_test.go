package classification

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractContractMonthEncodings(t *testing.T) {
	cases := []struct {
		header    string
		month     string
		remainder string
	}{
		// trailing YYMM suffix
		{"SG380 2511", "202511", "SG380"},
		{"SG180 2601", "202601", "SG180"},
		// slash-delimited date, only year/month contribute
		{"Settlement 2025/11/3", "202511", "Settlement"},
		{"2025/1/15 Gasoil", "202501", "Gasoil"},
		// hyphen-segmented alphabetic month code
		{"MOPS FO 380cst - NOV25", "202511", "MOPS FO 380cst"},
		{"Marine Fuel 0.5% - SEPT26", "202609", "Marine Fuel 0.5%"},
	}
	for _, tc := range cases {
		month, remainder, ok := ExtractContractMonth(tc.header)
		require.True(t, ok, "header %q", tc.header)
		require.Equal(t, tc.month, month, "header %q", tc.header)
		require.Equal(t, tc.remainder, remainder, "header %q", tc.header)
	}
}

func TestExtractContractMonthRoundTrip(t *testing.T) {
	// Three encodings of November 2025 normalize to the identical string.
	encodings := []string{
		"SG380 2511",
		"SG380 2025/11/3",
		"SG380 - NOV25",
	}
	for _, header := range encodings {
		month, _, ok := ExtractContractMonth(header)
		require.True(t, ok, "header %q", header)
		require.Equal(t, "202511", month, "header %q", header)
	}
}

func TestExtractContractMonthRejections(t *testing.T) {
	cases := []string{
		"MOPS FO 380cst FOB Sg", // plain spot header
		"Gasoil 1380",           // trailing digits with month 80
		"Brent - Crude",         // hyphen segment is not a month code
		"Jet - NOVEMBER25",      // month segment too long
		"Naphtha - XYZ25",       // unknown month name
	}
	for _, header := range cases {
		_, remainder, ok := ExtractContractMonth(header)
		require.False(t, ok, "header %q", header)
		require.Equal(t, header, remainder)
	}
}

func TestExtractContractMonthValidatesMonthDigits(t *testing.T) {
	// 13 is not a month, so the suffix is left attached.
	_, remainder, ok := ExtractContractMonth("SG380 2513")
	require.False(t, ok)
	require.Equal(t, "SG380 2513", remainder)

	month, _, ok := ExtractContractMonth("SG380 2512")
	require.True(t, ok)
	require.Equal(t, "202512", month)
}
