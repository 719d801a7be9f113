package feed

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test csv: %v", err)
	}
	return path
}

// go test -v --run TestLoadValidFile
func TestLoadValidFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"ts_event,open,high,low,close,volume,symbol,extra_col\n"+
			"1690000000000000000,10050,10100,10000,10080,500,AAPL,ignored\n")

	bars, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}

	bar := bars[0]
	if bar.TsEvent != 1690000000000000000 {
		t.Errorf("unexpected ts_event: %d", bar.TsEvent)
	}
	if bar.Open != 10050 || bar.High != 10100 || bar.Low != 10000 || bar.Close != 10080 {
		t.Errorf("unexpected prices: %+v", bar)
	}
	if bar.Volume != 500 {
		t.Errorf("unexpected volume: %d", bar.Volume)
	}
	if bar.Symbol != "AAPL" {
		t.Errorf("unexpected symbol: %s", bar.Symbol)
	}
}

// go test -v --run TestShuffledAndNegativeColumns
func TestShuffledAndNegativeColumns(t *testing.T) {
	// Column order is defined by the header, not by position, and price
	// columns are signed.
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"symbol,close,open,volume,high,low,ts_event\n"+
			"MNQZ4,-10,-20,3,5,-30,42\n")

	bars, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(bars))
	}

	bar := bars[0]
	if bar.Symbol != "MNQZ4" || bar.Close != -10 || bar.Open != -20 ||
		bar.Volume != 3 || bar.High != 5 || bar.Low != -30 || bar.TsEvent != 42 {
		t.Errorf("unexpected bar: %+v", bar)
	}
}

// go test -v --run TestMissingColumnFailsSchema
func TestMissingColumnFailsSchema(t *testing.T) {
	for _, dropped := range RequiredColumns {
		header := ""
		for _, col := range RequiredColumns {
			if col == dropped {
				continue
			}
			if header != "" {
				header += ","
			}
			header += col
		}

		path := writeCSV(t, t.TempDir(), "bars.csv", header+"\n")

		_, err := Open(path)
		if err == nil {
			t.Fatalf("expected schema error when %q is missing, got nil", dropped)
		}

		var schemaErr *SchemaError
		if !errors.As(err, &schemaErr) {
			t.Fatalf("expected *SchemaError, got %T: %v", err, err)
		}
		if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != dropped {
			t.Errorf("expected missing column %q, got %v", dropped, schemaErr.Missing)
		}
	}
}

// go test -v --run TestMissingColumnFailsRegardlessOfRows
func TestMissingColumnFailsRegardlessOfRows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"ts_event,open,high,low,close,symbol\n"+
			"1690000000000000000,10050,10100,10000,10080,AAPL\n")

	_, err := Load(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError, got %T: %v", err, err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != ColVolume {
		t.Errorf("expected missing volume, got %v", schemaErr.Missing)
	}
}

// go test -v --run TestTypeErrorOnBadCell
func TestTypeErrorOnBadCell(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"ts_event,open,high,low,close,volume,symbol\n"+
			"1690000000000000000,100,110,90,105,7,AAPL\n"+
			"1690000060000000000,abc,110,90,105,7,AAPL\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected type error, got nil")
	}

	var typeErr *TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T: %v", err, err)
	}
	if typeErr.Column != ColOpen {
		t.Errorf("expected column %q, got %q", ColOpen, typeErr.Column)
	}
	if typeErr.Row != 2 {
		t.Errorf("expected row 2, got %d", typeErr.Row)
	}
	if typeErr.Value != "abc" {
		t.Errorf("expected value %q, got %q", "abc", typeErr.Value)
	}
	if typeErr.File != "bars.csv" {
		t.Errorf("expected file bars.csv, got %q", typeErr.File)
	}
}

// go test -v --run TestTypeErrorOnNegativeUnsigned
func TestTypeErrorOnNegativeUnsigned(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"ts_event,open,high,low,close,volume,symbol\n"+
			"1690000000000000000,100,110,90,105,-7,AAPL\n")

	_, err := Load(path)
	var typeErr *TypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected *TypeError, got %T: %v", err, err)
	}
	if typeErr.Column != ColVolume || typeErr.Row != 1 {
		t.Errorf("unexpected type error: %+v", typeErr)
	}
}

// go test -v --run TestHeaderOnlyFile
func TestHeaderOnlyFile(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"ts_event,open,high,low,close,volume,symbol\n")

	bars, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected 0 bars, got %d", len(bars))
	}
}

// go test -v --run TestEmptyFileFails
func TestEmptyFileFails(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv", "")

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for empty file, got nil")
	}
}

// go test -v --run TestHeaderWithBOM
func TestHeaderWithBOM(t *testing.T) {
	// Excel and friends prepend a UTF-8 byte order mark; it must not hide
	// the first column.
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"\uFEFFts_event,open,high,low,close,volume,symbol\n"+
			"1690000000000000000,10050,10100,10000,10080,500,AAPL\n")

	bars, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 || bars[0].TsEvent != 1690000000000000000 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}

// go test -v --run TestCaseSensitiveHeader
func TestCaseSensitiveHeader(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"TS_EVENT,open,high,low,close,volume,symbol\n")

	_, err := Open(path)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected *SchemaError for upper-cased header, got %T: %v", err, err)
	}
}

// go test -v --run TestStreamingNext
func TestStreamingNext(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "bars.csv",
		"ts_event,open,high,low,close,volume,symbol\n"+
			"1,100,110,90,105,7,AAPL\n"+
			"2,105,115,95,110,8,AAPL\n")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Close()

	first, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error on first bar: %v", err)
	}
	if first.TsEvent != 1 {
		t.Errorf("unexpected first bar: %+v", first)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error on second bar: %v", err)
	}
	if second.TsEvent != 2 {
		t.Errorf("unexpected second bar: %+v", second)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

// go test -v --run TestLocate
func TestLocate(t *testing.T) {
	dir := t.TempDir()

	// No CSV yet
	if _, err := Locate(dir); err == nil {
		t.Error("expected error for empty directory, got nil")
	}

	// Non-CSV files are ignored
	writeCSV(t, dir, "notes.txt", "not a feed file")
	writeCSV(t, dir, "bars.csv", "ts_event\n")

	path, err := Locate(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "bars.csv" {
		t.Errorf("unexpected path: %s", path)
	}

	// A second CSV breaks the one-file rule
	writeCSV(t, dir, "more_bars.csv", "ts_event\n")
	if _, err := Locate(dir); err == nil {
		t.Error("expected error for two csv files, got nil")
	}
}

// go test -v --run TestBarPriceDecoding
func TestBarPriceDecoding(t *testing.T) {
	bar := Bar{
		TsEvent: 1690000000000000000,
		Open:    10_500_000_000,
		High:    11_000_000_000,
		Low:     10_000_000_000,
		Close:   10_750_000_000,
	}

	if got := bar.OpenPrice(); got != 10.5 {
		t.Errorf("unexpected open price: %v", got)
	}
	if got := bar.ClosePrice(); got != 10.75 {
		t.Errorf("unexpected close price: %v", got)
	}
	if got := bar.Time().Unix(); got != 1690000000 {
		t.Errorf("unexpected time: %v", got)
	}
}
