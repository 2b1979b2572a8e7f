package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReadBarsCSV reads rows of:
//
//	time,open,high,low,close[,volume...]
//
// time is unix seconds, unix milliseconds or RFC3339. A single header row
// ("time,...") is allowed and empty rows are skipped.
func ReadBarsCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		bars     []Bar
		sawFirst bool
		line     int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if isHeader(row) {
				continue
			}
		}
		b, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("bars line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

// LoadBarsCSV opens path and reads it with ReadBarsCSV.
func LoadBarsCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBarsCSV(f)
}

func isHeader(row []string) bool {
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "time" || first == "timestamp" || first == "date"
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("need at least 5 columns (time,open,high,low,close), got %d", len(row))
	}
	ts, err := ParseTime(row[0])
	if err != nil {
		return Bar{}, err
	}
	var ohlc [4]float64
	for i := range ohlc {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad price %q: %w", row[i+1], err)
		}
		ohlc[i] = v
	}
	return Bar{Time: ts, Open: ohlc[0], High: ohlc[1], Low: ohlc[2], Close: ohlc[3]}, nil
}

// ParseTime accepts unix seconds, unix milliseconds (13+ digits), either
// written as a decimal or exponent number, RFC3339 or RFC3339Nano and returns
// unix seconds.
func ParseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if len(strings.TrimLeft(s, "-")) >= 13 {
			return n / 1000, nil
		}
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return unixFromFloat(f), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, s)
		if err2 != nil {
			return 0, fmt.Errorf("bad time %q: %w", s, err)
		}
		t = t2
	}
	return t.Unix(), nil
}

// unixFromFloat reads a numeric timestamp as seconds, or milliseconds when it
// is too large to be a plausible seconds value.
func unixFromFloat(f float64) int64 {
	if math.Abs(f) >= 1e12 {
		return int64(f / 1000)
	}
	return int64(f)
}
