package classification

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Contract months arrive in three header encodings, tried in this order:
//
//  1. a trailing YYMM suffix appended to the product name ("SG380 2511"),
//     accepted only when the last two digits form a month 01-12;
//  2. a slash-delimited date anywhere in the header ("Settle 2025/11/3"),
//     contributing its year and month;
//  3. a hyphen-segmented header whose last segment is a short alphabetic
//     month plus two-digit year ("MOPS FO 380cst - NOV25").
//
// All three normalize to YYYYMM.

var (
	trailingYYMMRe = regexp.MustCompile(`^(.*\S)\s+(\d{4})$`)
	slashDateRe    = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`)
)

var monthCodes = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
	"JUNE": 6, "JULY": 7, "SEPT": 9,
}

// ExtractContractMonth returns the normalized YYYYMM month, the header text
// with the month token stripped, and whether a month was found at all.
func ExtractContractMonth(header string) (string, string, bool) {
	text := strings.TrimSpace(header)

	if m := trailingYYMMRe.FindStringSubmatch(text); m != nil {
		yy, _ := strconv.Atoi(m[2][:2])
		mm, _ := strconv.Atoi(m[2][2:])
		if mm >= 1 && mm <= 12 {
			return formatMonth(2000+yy, mm), strings.TrimSpace(m[1]), true
		}
	}

	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			remainder := strings.TrimSpace(strings.Replace(text, m[0], "", 1))
			return formatMonth(year, month), remainder, true
		}
	}

	if idx := strings.LastIndex(text, "-"); idx >= 0 {
		segment := strings.TrimSpace(text[idx+1:])
		if month, year, ok := parseAlphaMonthCode(segment); ok {
			return formatMonth(year, month), strings.TrimSpace(text[:idx]), true
		}
	}

	return "", text, false
}

// parseAlphaMonthCode accepts codes like AUG25 or SEPT25: an alphabetic
// month of 3-4 letters followed by a two-digit year, 5-6 characters total.
func parseAlphaMonthCode(segment string) (month, year int, ok bool) {
	if len(segment) < 5 || len(segment) > 6 {
		return 0, 0, false
	}
	alpha := segment[:len(segment)-2]
	digits := segment[len(segment)-2:]
	for _, r := range alpha {
		if !unicode.IsLetter(r) {
			return 0, 0, false
		}
	}
	yy, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, false
	}
	m, found := monthCodes[strings.ToUpper(alpha)]
	if !found {
		return 0, 0, false
	}
	return m, 2000 + yy, true
}

func formatMonth(year, month int) string {
	return strconv.Itoa(year) + twoDigits(month)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
