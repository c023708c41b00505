// Package corpus reads and writes the labeled track list that gets indexed.
//
// The file is a CSV with a header row and the columns id, filename, label
// and filepath in any order. filepath is relative to the audio directory.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"musicrec/internal/domain"
)

// Column names of the corpus file.
const (
	ColumnID       = "id"
	ColumnFilename = "filename"
	ColumnLabel    = "label"
	ColumnFilePath = "filepath"
)

var requiredColumns = []string{ColumnFilename, ColumnLabel, ColumnFilePath}

// LoadCSV reads the corpus at path.
func LoadCSV(path string) ([]domain.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	tracks, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tracks, nil
}

// ReadCSV parses a corpus. Without an id column tracks are numbered 1..n in
// file order.
func ReadCSV(r io.Reader) ([]domain.Track, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, expected header %s",
			domain.ErrMissingField, strings.Join(append([]string{ColumnID}, requiredColumns...), ","))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: column %q", domain.ErrMissingField, c)
		}
	}
	idCol, hasID := cols[ColumnID]

	var tracks []domain.Track
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		t := domain.Track{
			ID:       int64(row),
			Filename: field(rec, cols[ColumnFilename]),
			Genre:    domain.Genre(strings.ToLower(field(rec, cols[ColumnLabel]))),
			FilePath: filepath.ToSlash(field(rec, cols[ColumnFilePath])),
		}
		if hasID {
			raw := field(rec, idCol)
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid id %q: %w", row, raw, err)
			}
			t.ID = id
		}
		tracks = append(tracks, t)
	}

	return tracks, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// WriteCSV writes tracks to path with the full header, creating parent
// directories as needed.
func WriteCSV(path string, tracks []domain.Track) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus: %w", err)
	}

	if err := writeCSV(f, tracks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, tracks []domain.Track) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnID, ColumnFilename, ColumnLabel, ColumnFilePath}); err != nil {
		return err
	}
	for _, t := range tracks {
		rec := []string{
			strconv.FormatInt(t.ID, 10),
			t.Filename,
			string(t.Genre),
			t.FilePath,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVSource loads the corpus file on every call, so a reindex picks up
// edits made since the last one.
type CSVSource struct {
	Path string
}

func (s CSVSource) Tracks() ([]domain.Track, error) {
	return LoadCSV(s.Path)
}
