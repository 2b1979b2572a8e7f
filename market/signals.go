package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseSignalsJSON extracts signals from a JSON document. The document may be a
// bare array or an object with a "signals" array, which is how strategy
// evaluators usually wrap their output. Each element needs "time" (unix
// seconds/ms or RFC3339) and "type" (LONG/SHORT/BUY/SELL); "side" is accepted
// in place of "type" and "strategy" in place of "strategyName".
func ParseSignalsJSON(data []byte) ([]Signal, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("signals: invalid json")
	}
	doc := gjson.ParseBytes(data)
	list := doc
	if !doc.IsArray() {
		list = doc.Get("signals")
		if !list.IsArray() {
			return nil, fmt.Errorf("signals: expected an array or an object with a signals array")
		}
	}

	items := list.Array()
	out := make([]Signal, 0, len(items))
	for i, v := range items {
		s, err := signalFromJSON(v)
		if err != nil {
			return nil, fmt.Errorf("signals[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func signalFromJSON(v gjson.Result) (Signal, error) {
	tv := v.Get("time")
	if !tv.Exists() {
		return Signal{}, fmt.Errorf("missing time")
	}
	var ts int64
	if tv.Type == gjson.Number {
		ts = unixFromFloat(tv.Float())
	} else {
		var err error
		if ts, err = ParseTime(tv.String()); err != nil {
			return Signal{}, err
		}
	}

	sideStr := v.Get("type").String()
	if sideStr == "" {
		sideStr = v.Get("side").String()
	}
	side, err := ParseSide(sideStr)
	if err != nil {
		return Signal{}, err
	}

	strategy := v.Get("strategyName").String()
	if strategy == "" {
		strategy = v.Get("strategy").String()
	}
	return Signal{
		Time:     ts,
		Side:     side,
		Reason:   v.Get("reason").String(),
		Strategy: strategy,
	}, nil
}

// ReadSignalsCSV reads rows of time,type[,reason[,strategy]] with an optional header.
func ReadSignalsCSV(r io.Reader) ([]Signal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		out      []Signal
		sawFirst bool
		line     int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if isHeader(row) {
				continue
			}
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("signals line %d: need at least time,type", line)
		}
		ts, err := ParseTime(row[0])
		if err != nil {
			return nil, fmt.Errorf("signals line %d: %w", line, err)
		}
		side, err := ParseSide(row[1])
		if err != nil {
			return nil, fmt.Errorf("signals line %d: %w", line, err)
		}
		s := Signal{Time: ts, Side: side}
		if len(row) > 2 {
			s.Reason = strings.TrimSpace(row[2])
		}
		if len(row) > 3 {
			s.Strategy = strings.TrimSpace(row[3])
		}
		out = append(out, s)
	}
}

// LoadSignals reads a signal file, choosing JSON or CSV by extension.
func LoadSignals(path string) ([]Signal, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseSignalsJSON(data)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSignalsCSV(f)
}
