package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/tradelab/backtest"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID     string
	Created   time.Time
	Timeframe string
	Dataset   string

	Instrument string
	Strategy   string
	Config     []byte // engine and run options as JSON

	// Risk management
	RiskPct float64 // 0.01 (1%)
	SLMult  float64 // stop distance in ATR-proxy units
	TPMult  float64

	Start time.Time
	End   time.Time

	Trades int
	Wins   int
	Losses int

	StartBalance float64
	EndBalance   float64

	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // percent
	ProfitFactor float64
	MaxDDPct     float64
	Sharpe       float64
	SQN          float64
	Expectancy   float64

	GitCommit   string
	OrgPath     string
	EquityChart string

	Notes       []string
	NextActions []string
}

// NewBacktestRun summarises a backtest result under runID.
func NewBacktestRun(runID, strategy string, res backtest.Result) (BacktestRun, error) {
	cfg, err := json.Marshal(struct {
		Engine  any `json:"engine"`
		Options any `json:"options"`
	}{res.Config, res.Options})
	if err != nil {
		return BacktestRun{}, fmt.Errorf("journal: encode run config: %w", err)
	}

	m := res.Metrics
	return BacktestRun{
		RunID:        runID,
		Created:      time.Now().UTC(),
		Strategy:     strategy,
		Config:       cfg,
		RiskPct:      res.Options.RiskPct,
		SLMult:       res.Options.SLMult,
		TPMult:       res.Options.TPMult,
		Start:        unix(res.Start),
		End:          unix(res.End),
		Trades:       m.TotalTrades,
		Wins:         m.WinningTrades,
		Losses:       m.LosingTrades,
		StartBalance: m.InitialBalance,
		EndBalance:   m.FinalBalance,
		NetPL:        m.NetProfit,
		ReturnPct:    m.ReturnPct,
		WinRate:      m.WinRate,
		ProfitFactor: m.ProfitFactor,
		MaxDDPct:     m.MaxDrawdown,
		Sharpe:       m.SharpeRatio,
		SQN:          m.SQN,
		Expectancy:   m.Expectancy,
	}, nil
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// RenderOrg returns the run as an Org-mode block.
func (v *BacktestRun) RenderOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := backtestOrg.Execute(buf, v); err != nil {
		return "", fmt.Errorf("journal: render org: %w", err)
	}
	return buf.String(), nil
}

// WriteBacktestOrg renders the run to OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	if v.OrgPath == "" {
		return fmt.Errorf("journal: org path not set")
	}
	out, err := v.RenderOrg()
	if err != nil {
		return err
	}
	if err := os.WriteFile(v.OrgPath, []byte(out), 0644); err != nil {
		return fmt.Errorf("journal: write org: %w", err)
	}
	return nil
}

const BacktestOrgTemplate = `
* BACKTEST: {{if .Strategy}}{{.Strategy}}{{else}}(strategy?){{end}} {{.Instrument}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:TIMEFRAME:   {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{printf "%.2f" .ProfitFactor}}
:SHARPE:      {{printf "%.2f" .Sharpe}}
:SQN:         {{printf "%.2f" .SQN}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter        | Value |
|------------------+-------|
| Config           | {{printf "%s" .Config}} |
| Stop (ATR x)     | {{printf "%.2f" .SLMult}} |
| Target (ATR x)   | {{printf "%.2f" .TPMult}} |
| Risk per Trade % | {{printf "%.2f" (mul100 .RiskPct)}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" .WinRate}}%*
- Profit Factor:    *{{printf "%.2f" .ProfitFactor}}*
- Expectancy:       *{{printf "%.2f" .Expectancy}}*

** Equity Curve
{{- if .EquityChart }}
[[file:{{.EquityChart}}]]
{{- else }}
# (optional) link an exported equity chart here
{{- end }}

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}
** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
