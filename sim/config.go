package sim

// Config fixes the account and cost model of a Ledger for its lifetime.
type Config struct {
	InitialBalance    float64 `json:"initialBalance" yaml:"initial_balance"`
	Leverage          float64 `json:"leverage" yaml:"leverage"`
	Commission        float64 `json:"commission" yaml:"commission"` // fraction of exit notional
	Slippage          float64 `json:"slippage" yaml:"slippage"`     // price units per unit traded
	UseSyntheticTicks bool    `json:"useSyntheticTicks" yaml:"use_synthetic_ticks"`
}

// DefaultConfig is a 100k account, no leverage, no costs, synthetic ticks on.
func DefaultConfig() Config {
	return Config{
		InitialBalance:    100000,
		Leverage:          1,
		Commission:        0,
		Slippage:          0,
		UseSyntheticTicks: true,
	}
}
