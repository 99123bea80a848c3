package config

import (
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/commission"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange/slippage"
)

// GenerateDefaultConfig returns a runnable momentum strategy config which
// reads daily bars for one instrument from a csv file in dataDir
func GenerateDefaultConfig(dataDir string) *Config {
	return &Config{
		Nickname: "ExampleMomentum",
		Goal:     "Buy AAPL when the close rises and exit when it falls. Fill at the next bar's close with a flat $1 commission",
		StrategySettings: StrategySettings{
			Name: "momentum",
			CustomSettings: map[string]any{
				"exit-on-decline": true,
			},
		},
		DataSettings: DataSettings{
			Interval: 24 * time.Hour,
			CSVData: []CSVData{
				{
					Instrument: "AAPL",
					Path:       filepath.Join(dataDir, "AAPL.csv"),
				},
			},
		},
		PortfolioSettings: PortfolioSettings{
			InitialFunds: decimal.NewFromInt(100000),
			Sizing: Sizing{
				Method:   FixedQuantity,
				Quantity: decimal.NewFromInt(10),
			},
			OrderType: "market",
		},
		ExecutionSettings: ExecutionSettings{
			FillPrice: exchange.FillAtClose,
			Commission: commission.Settings{
				Model: commission.Flat,
				Flat:  decimal.NewFromInt(1),
			},
			Slippage: slippage.Settings{
				Model: slippage.None,
			},
			Seed: 1337,
		},
		OutputSettings: OutputSettings{
			EquityLogPath: filepath.Join(dataDir, "results", "equity.jsonl"),
			AuditLogPath:  filepath.Join(dataDir, "results", "audit.jsonl"),
		},
	}
}
