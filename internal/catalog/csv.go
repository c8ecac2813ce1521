package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Header is the fixed column order of the sample CSV.
var Header = []string{"title", "author", "description", "cover_url", "genres", "year"}

// ErrMissingHeader is returned by ReadCSV for input without a header row.
var ErrMissingHeader = errors.New("csv has no header row")

func (r Record) row() []string {
	return []string{r.Title, r.Author, r.Description, r.CoverURL, r.Genres, r.Year}
}

// WriteCSV writes the header followed by one row per record.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(r.row()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile replaces whatever is at path with the CSV rendering of records.
func WriteCSVFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV parses a CSV with a header row. Columns are matched to Record fields
// by header name, case-insensitively; unknown columns are ignored and missing
// ones read as "". Values are trimmed.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	get := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		out = append(out, Record{
			Title:       get(row, "title"),
			Author:      get(row, "author"),
			Description: get(row, "description"),
			CoverURL:    get(row, "cover_url"),
			Genres:      get(row, "genres"),
			Year:        get(row, "year"),
		})
	}
	return out, nil
}
