package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Locate scans dir and returns the path of its single CSV file.
// The feed convention places exactly one CSV in the directory; zero or
// several is an error for the caller to resolve.
func Locate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read feed directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".csv") {
			names = append(names, entry.Name())
		}
	}

	if len(names) != 1 {
		return "", fmt.Errorf("expected 1 csv file in %s, found %d", dir, len(names))
	}
	return filepath.Join(dir, names[0]), nil
}

// Reader streams validated OHLCV bars from a CSV file.
// Header names are matched case-sensitively; columns beyond the required
// seven are ignored. Any coercion failure aborts the read — rows are never
// skipped.
type Reader struct {
	f    *os.File
	csv  *csv.Reader
	path string
	cols map[string]int // required column name -> header index
	row  int            // data rows consumed so far
}

// Open opens the CSV at path and validates its header row.
// A missing required column yields a *SchemaError naming every absent column.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		f.Close()
		return nil, fmt.Errorf("%s: empty file, header row required", filepath.Base(path))
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}

	required := make(map[string]bool, len(RequiredColumns))
	for _, name := range RequiredColumns {
		required[name] = true
	}

	cols := make(map[string]int, len(RequiredColumns))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if !required[name] {
			continue
		}
		if _, dup := cols[name]; dup {
			continue // first occurrence wins
		}
		cols[name] = i
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		f.Close()
		return nil, &SchemaError{File: filepath.Base(path), Missing: missing}
	}

	return &Reader{f: f, csv: r, path: path, cols: cols}, nil
}

// Load is the one-shot form: open, read every row, close.
func Load(path string) ([]Bar, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}

// Path returns the path of the underlying CSV file.
func (r *Reader) Path() string { return r.path }

// Next returns the next bar from the file. io.EOF signals end of data.
func (r *Reader) Next() (Bar, error) {
	record, err := r.csv.Read()
	if err == io.EOF {
		return Bar{}, io.EOF
	}
	if err != nil {
		return Bar{}, fmt.Errorf("read csv record: %w", err)
	}
	r.row++

	tsEvent, err := r.parseUint(record, ColTsEvent)
	if err != nil {
		return Bar{}, err
	}
	open, err := r.parseInt(record, ColOpen)
	if err != nil {
		return Bar{}, err
	}
	high, err := r.parseInt(record, ColHigh)
	if err != nil {
		return Bar{}, err
	}
	low, err := r.parseInt(record, ColLow)
	if err != nil {
		return Bar{}, err
	}
	closePrice, err := r.parseInt(record, ColClose)
	if err != nil {
		return Bar{}, err
	}
	volume, err := r.parseUint(record, ColVolume)
	if err != nil {
		return Bar{}, err
	}

	return Bar{
		TsEvent: tsEvent,
		Open:    open,
		High:    high,
		Low:     low,
		Close:   closePrice,
		Volume:  volume,
		Symbol:  record[r.cols[ColSymbol]],
	}, nil
}

// ReadAll consumes the remaining rows and returns them as a slice.
func (r *Reader) ReadAll() ([]Bar, error) {
	var bars []Bar
	for {
		bar, err := r.Next()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

func (r *Reader) parseUint(record []string, col string) (uint64, error) {
	raw := record[r.cols[col]]
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &TypeError{File: filepath.Base(r.path), Row: r.row, Column: col, Value: raw, Err: err}
	}
	return v, nil
}

func (r *Reader) parseInt(record []string, col string) (int64, error) {
	raw := record[r.cols[col]]
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &TypeError{File: filepath.Base(r.path), Row: r.row, Column: col, Value: raw, Err: err}
	}
	return v, nil
}
