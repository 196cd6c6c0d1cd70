package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arnavshah/team-allocator-go/pkg/models"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyRoster is returned when the input has no header row
	ErrEmptyRoster = errors.New("roster is empty")
	// ErrInvalidHeader is returned for blank or duplicate column names
	ErrInvalidHeader = errors.New("invalid roster header")
	// ErrInvalidRow is returned when a row has more fields than the header
	ErrInvalidRow = errors.New("invalid roster row")
	// ErrUnsupportedCharset is returned for charsets other than UTF-8 and EUC-KR
	ErrUnsupportedCharset = errors.New("unsupported charset")
)

// decoder returns the text decoder for the named charset. UTF-8 input may
// start with a byte order mark.
func decoder(charset string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return unicode.UTF8BOM.NewDecoder(), nil
	case "euc-kr", "euckr", "cp949", "ks_c_5601-1987":
		return korean.EUCKR.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, charset)
	}
}

// ReadCSV parses a roster from CSV. The first row names the columns.
func ReadCSV(r io.Reader, charset string) (*models.Roster, error) {
	dec, err := decoder(charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyRoster
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrInvalidHeader, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidHeader, name)
		}
		seen[name] = true
		cols[i] = name
	}

	ros := &models.Roster{Columns: cols, Rows: []map[string]string{}}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if len(record) > len(cols) {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", ErrInvalidRow, line, len(record), len(cols))
		}
		if blankRecord(record) {
			continue
		}

		row := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(record) {
				row[c] = record[i]
			} else {
				row[c] = ""
			}
		}
		ros.Rows = append(ros.Rows, row)
	}

	return ros, nil
}

// WriteCSV writes the roster as UTF-8 CSV with a byte order mark so that
// spreadsheet applications pick the right encoding. Columns named in first
// are moved to the front in the given order; unknown names are ignored.
func WriteCSV(w io.Writer, ros *models.Roster, first ...string) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(tw)

	cols := OrderColumns(ros, first...)
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range ros.Rows {
		for i, c := range cols {
			record[i] = row[c]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return tw.Close()
}

// OrderColumns returns the roster columns with the given ones first
func OrderColumns(ros *models.Roster, first ...string) []string {
	cols := make([]string, 0, len(ros.Columns))
	placed := make(map[string]bool)
	for _, c := range first {
		if c != "" && !placed[c] && ros.HasColumn(c) {
			cols = append(cols, c)
			placed[c] = true
		}
	}
	for _, c := range ros.Columns {
		if !placed[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
