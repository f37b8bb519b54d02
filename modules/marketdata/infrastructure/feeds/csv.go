package feeds

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/go-faster/errors"
)

func openDelimited(fileName string, kind FeedKind, content []byte) (*Source, error) {
	r := csv.NewReader(bytes.NewReader(stripUTF8BOM(content)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Wrapf(ErrTooFewColumns, "file %s has no header row", fileName)
		}
		return nil, errors.Wrap(err, "failed to read header row")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if countNonEmpty(header) < 2 {
		return nil, errors.Wrapf(ErrTooFewColumns, "file %s", fileName)
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read data row")
		}
		rows = append(rows, record)
	}

	return &Source{
		FileName: fileName,
		Kind:     kind,
		Sheets: []Sheet{{
			Name:   fileName,
			Label:  string(kind),
			Header: header,
			Rows:   rows,
		}},
	}, nil
}

func stripUTF8BOM(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}
