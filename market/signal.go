package market

// Signal asks the engine to open a position on the bar whose Time matches exactly.
type Signal struct {
	Time     int64  `json:"time"`
	Side     Side   `json:"type"`
	Reason   string `json:"reason,omitempty"`
	Strategy string `json:"strategyName,omitempty"`
}

// IndexSignals groups signals by bar time, keeping input order within a time.
func IndexSignals(signals []Signal) map[int64][]Signal {
	idx := make(map[int64][]Signal, len(signals))
	for _, s := range signals {
		idx[s.Time] = append(idx[s.Time], s)
	}
	return idx
}
