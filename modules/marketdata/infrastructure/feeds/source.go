package feeds

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyContent  = errors.New("file content is empty")
	ErrNoWorksheet   = errors.New("no matching worksheet found")
	ErrTooFewColumns = errors.New("header requires at least a date column and one product column")
)

// Sheet is one addressable table: a header row plus data rows. Both
// worksheet and delimited-text feeds resolve to this shape so the row walker
// does not care where the cells came from.
type Sheet struct {
	Name   string
	Label  string
	Header []string
	Rows   [][]string
}

// Source is an opened feed file with its resolved sheets.
type Source struct {
	FileName string
	Kind     FeedKind
	Sheets   []Sheet
	// Skipped lists sheets that were wanted but absent; a run degrades to
	// these messages instead of failing as long as one sheet resolved.
	Skipped []string
}

// Open determines the file family from the declared feed kind and resolves
// the sheets to operate on. It performs no writes and no classification.
func Open(fileName string, kind FeedKind, content []byte) (*Source, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if kind.IsSpreadsheet() {
		return openWorkbook(fileName, kind, content)
	}
	return openDelimited(fileName, kind, content)
}

func openWorkbook(fileName string, kind FeedKind, content []byte) (*Source, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open workbook")
	}
	defer func() { _ = f.Close() }()

	available := f.GetSheetList()
	src := &Source{FileName: fileName, Kind: kind}

	for _, target := range sheetCandidates[kind] {
		name, found := resolveSheetName(available, target.candidates)
		if !found {
			src.Skipped = append(src.Skipped, fmt.Sprintf(
				"worksheet for %s not found, tried: %s",
				target.label, strings.Join(target.candidates, ", ")))
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read worksheet %s", name)
		}
		sheet, err := tabulate(name, target.label, rows)
		if err != nil {
			return nil, err
		}
		src.Sheets = append(src.Sheets, sheet)
	}

	if len(src.Sheets) == 0 {
		return nil, errors.Wrapf(ErrNoWorksheet, "file %s: %s", fileName, strings.Join(src.Skipped, "; "))
	}
	return src, nil
}

// resolveSheetName takes the first candidate present in the workbook,
// matching case-insensitively because legacy files are hand-authored.
func resolveSheetName(available, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		for _, name := range available {
			if strings.EqualFold(strings.TrimSpace(name), candidate) {
				return name, true
			}
		}
	}
	return "", false
}

func tabulate(name, label string, rows [][]string) (Sheet, error) {
	if len(rows) == 0 {
		return Sheet{}, errors.Wrapf(ErrTooFewColumns, "worksheet %s (%s) is empty", name, label)
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}
	if countNonEmpty(header) < 2 {
		return Sheet{}, errors.Wrapf(ErrTooFewColumns, "worksheet %s (%s)", name, label)
	}
	return Sheet{Name: name, Label: label, Header: header, Rows: rows[1:]}, nil
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if c != "" {
			n++
		}
	}
	return n
}
