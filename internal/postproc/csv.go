// Package postproc post-processes simulation output: CSV column selection,
// integrated quantities over time series and the benchmark report.
package postproc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var ErrMissingColumn = errors.New("postproc: missing column")

// ReadCSV reads the named columns of a CSV file with a header row. Columns
// are returned in the order of fields.
func ReadCSV(path string, fields []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	cols := make([]int, len(fields))
	for i, name := range fields {
		k, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", path, ErrMissingColumn, name)
		}
		cols[i] = k
	}

	out := make([][]string, len(fields))
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for i, k := range cols {
			out[i] = append(out[i], rec[k])
		}
	}
	return out, nil
}

// ReadColumns reads columns of a headerless CSV file by position.
func ReadColumns(path string, cols []int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	out := make([][]string, len(cols))
	for row := 0; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for i, k := range cols {
			if k < 0 || k >= len(rec) {
				return nil, fmt.Errorf("%s: row %d: %w %d", path, row, ErrMissingColumn, k)
			}
			out[i] = append(out[i], rec[k])
		}
	}
	return out, nil
}

// WriteCSV writes equal-length columns row by row, with fields as the
// header row when header is set.
func WriteCSV(path string, fields []string, columns [][]string, header bool) error {
	if len(fields) != len(columns) {
		return fmt.Errorf("postproc: %d fields for %d columns", len(fields), len(columns))
	}
	rows := 0
	for i, c := range columns {
		if i == 0 {
			rows = len(c)
		} else if len(c) != rows {
			return fmt.Errorf("postproc: column %q has %d rows, want %d", fields[i], len(c), rows)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if header {
		if err := w.Write(fields); err != nil {
			f.Close()
			return err
		}
	}
	rec := make([]string, len(columns))
	for r := 0; r < rows; r++ {
		for i, c := range columns {
			rec[i] = c[r]
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExtractColumns keeps the named columns of in and writes them to out.
func ExtractColumns(in, out string, fields []string, header bool) error {
	cols, err := ReadCSV(in, fields)
	if err != nil {
		return err
	}
	return WriteCSV(out, fields, cols, header)
}

// ParseFloats converts string columns to numbers.
func ParseFloats(columns [][]string) ([][]float64, error) {
	out := make([][]float64, len(columns))
	for i, c := range columns {
		out[i] = make([]float64, len(c))
		for r, s := range c {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("postproc: column %d row %d: %w", i, r, err)
			}
			out[i][r] = v
		}
	}
	return out, nil
}

// FormatFloats converts numeric columns to strings with the given number
// of significant digits.
func FormatFloats(columns [][]float64, precision int) [][]string {
	out := make([][]string, len(columns))
	for i, c := range columns {
		out[i] = make([]string, len(c))
		for r, v := range c {
			out[i][r] = strconv.FormatFloat(v, 'g', precision, 64)
		}
	}
	return out
}
