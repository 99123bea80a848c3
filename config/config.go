package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/gct-backtester/common"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/exchange"
	"github.com/thrasher-corp/gct-backtester/eventhandlers/strategies"
	"github.com/thrasher-corp/gct-backtester/log"
)

// EnvPrefix is prepended to environment variables which override config values
const EnvPrefix = "BACKTESTER"

// ReadConfigFromFile will take a config from a path. JSON and YAML are
// detected by file extension
func ReadConfigFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, errNoPath)
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w reading %v: %w", common.ErrConfiguration, path, err)
	}
	resp := &Config{}
	if err := v.Unmarshal(resp, decoderOptions); err != nil {
		return nil, fmt.Errorf("%w decoding %v: %w", common.ErrConfiguration, path, err)
	}
	log.Debugf(log.ConfigMgr, "loaded strategy config %v from %v", resp.Nickname, path)
	return resp, nil
}

// LoadConfig unmarshalls JSON byte data into a config struct
func LoadConfig(data []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	resp := &Config{}
	if err := v.Unmarshal(resp, decoderOptions); err != nil {
		return nil, fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	return resp, nil
}

// SaveConfig writes the config to path as indented JSON
func (c *Config) SaveConfig(path string) error {
	if c == nil {
		return common.ErrNilPointer
	}
	return writeJSON(path, c)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o640)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func decoderOptions(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = true
	dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		stringToDecimalHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// stringToDecimalHookFunc decodes strings and numbers into decimals, viper
// reads JSON numbers as float64 and YAML numbers as int or float64
func stringToDecimalHookFunc() mapstructure.DecodeHookFuncType {
	decimalType := reflect.TypeOf(decimal.Decimal{})
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			if v == "" {
				return decimal.Zero, nil
			}
			return decimal.NewFromString(v)
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case uint64:
			return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), nil
		}
		return data, nil
	}
}

// Validate checks all config settings. Every problem found is returned
// joined together and wrapped as a configuration error
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w %w", common.ErrConfiguration, common.ErrNilPointer)
	}
	err := errors.Join(
		c.validateStrategySettings(),
		c.validateDataSettings(),
		c.validatePortfolioSettings(),
		c.validateExecutionSettings(),
	)
	if err != nil {
		return fmt.Errorf("%w %w", common.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validateStrategySettings() error {
	strat, err := strategies.LoadStrategyByName(c.StrategySettings.Name)
	if err != nil {
		return err
	}
	if len(c.StrategySettings.CustomSettings) > 0 {
		return strat.SetCustomSettings(c.StrategySettings.CustomSettings)
	}
	return nil
}

func (c *Config) validateDataSettings() error {
	d := &c.DataSettings
	var errs error
	if err := c.validateDate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if d.Interval < 0 {
		errs = errors.Join(errs, fmt.Errorf("%w, received %v", errIntervalUnset, d.Interval))
	}
	switch {
	case len(d.CSVData) == 0 && d.DatabaseData == nil:
		return errors.Join(errs, errNoDataSource)
	case len(d.CSVData) > 0 && d.DatabaseData != nil:
		return errors.Join(errs, errMultipleDataSources)
	}
	seen := make(map[string]bool)
	checkInstrument := func(instrument string) {
		if instrument == "" {
			errs = errors.Join(errs, errNoInstruments)
			return
		}
		if seen[instrument] {
			errs = errors.Join(errs, fmt.Errorf("%w %v", errDuplicateInstrument, instrument))
		}
		seen[instrument] = true
	}
	for i := range d.CSVData {
		checkInstrument(d.CSVData[i].Instrument)
		if d.CSVData[i].Path == "" {
			errs = errors.Join(errs, fmt.Errorf("%w for %v", errMissingPath, d.CSVData[i].Instrument))
		}
	}
	if d.DatabaseData != nil {
		if len(d.DatabaseData.Instruments) == 0 {
			errs = errors.Join(errs, errNoInstruments)
		}
		for i := range d.DatabaseData.Instruments {
			checkInstrument(d.DatabaseData.Instruments[i])
		}
		if d.Interval <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%w, database data requires an interval", errIntervalUnset))
		}
	}
	return errs
}

// validateDate checks whether someone has set a date poorly in their config
func (c *Config) validateDate() error {
	start, end := c.DataSettings.StartDate, c.DataSettings.EndDate
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if !start.Before(end) {
		return fmt.Errorf("%w start %v end %v", errBadDate, start, end)
	}
	return nil
}

func (c *Config) validatePortfolioSettings() error {
	p := &c.PortfolioSettings
	var errs error
	if !p.InitialFunds.IsPositive() {
		errs = errors.Join(errs, fmt.Errorf("%w, received %v", errBadInitialFunds, p.InitialFunds))
	}
	switch strings.ToLower(p.Sizing.Method) {
	case FixedQuantity:
		if !p.Sizing.Quantity.IsPositive() {
			errs = errors.Join(errs, fmt.Errorf("%w, received %v", errInvalidSizingQuantity, p.Sizing.Quantity))
		}
	case FixedFractional:
		if !p.Sizing.Fraction.IsPositive() || p.Sizing.Fraction.GreaterThan(decimal.NewFromInt(1)) {
			errs = errors.Join(errs, fmt.Errorf("%w, received %v", errInvalidSizingFraction, p.Sizing.Fraction))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("%w %q", errInvalidSizingMethod, p.Sizing.Method))
	}
	if p.MaximumHoldingRatio.IsNegative() || p.MaximumGrossExposure.IsNegative() {
		errs = errors.Join(errs, errNegativeLimit)
	}
	if err := p.Limits.validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if _, err := common.ParseOrderType(p.OrderType); err != nil {
		errs = errors.Join(errs, err)
	}
	if p.LimitOffsetBasisPoints.IsNegative() || p.LimitOffsetBasisPoints.GreaterThanOrEqual(decimal.NewFromInt(10000)) {
		errs = errors.Join(errs, fmt.Errorf("%w, received %v", errInvalidLimitOffset, p.LimitOffsetBasisPoints))
	}
	return errs
}

// validate ensures no one sets bad config values on purpose
func (m *MinMax) validate() error {
	if m.MaximumSize.IsNegative() {
		return fmt.Errorf("invalid maximum size %w", errSizeLessThanZero)
	}
	if m.MinimumSize.IsNegative() {
		return fmt.Errorf("invalid minimum size %w", errSizeLessThanZero)
	}
	if m.MaximumTotal.IsNegative() {
		return fmt.Errorf("invalid maximum total set to %w", errSizeLessThanZero)
	}
	if m.MaximumSize.LessThan(m.MinimumSize) && !m.MinimumSize.IsZero() && !m.MaximumSize.IsZero() {
		return fmt.Errorf("%w maximum size %v vs minimum size %v",
			errMaxSizeMinSizeMismatch,
			m.MaximumSize,
			m.MinimumSize)
	}
	if m.MaximumSize.Equal(m.MinimumSize) && !m.MinimumSize.IsZero() && !m.MaximumSize.IsZero() {
		return fmt.Errorf("%w %v",
			errMinMaxEqual,
			m.MinimumSize)
	}
	return nil
}

func (c *Config) validateExecutionSettings() error {
	e := &c.ExecutionSettings
	var errs error
	switch strings.ToLower(e.FillPrice) {
	case "", exchange.FillAtOpen, exchange.FillAtClose:
	default:
		errs = errors.Join(errs, fmt.Errorf("%w, received %q", errInvalidFillPrice, e.FillPrice))
	}
	if err := e.Commission.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := e.Slippage.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

// PrintSetting prints relevant settings to the console for easy reading
func (c *Config) PrintSetting() {
	log.Infof(log.ConfigMgr, "-------------------------------------------------------------")
	log.Infof(log.ConfigMgr, "Strategy: %v", c.StrategySettings.Name)
	if c.Nickname != "" {
		log.Infof(log.ConfigMgr, "Nickname: %v", c.Nickname)
	}
	if c.Goal != "" {
		log.Infof(log.ConfigMgr, "Goal: %v", c.Goal)
	}
	for k, v := range c.StrategySettings.CustomSettings {
		log.Infof(log.ConfigMgr, "%v: %v", k, v)
	}
	log.Infof(log.ConfigMgr, "Initial funds: %v", c.PortfolioSettings.InitialFunds)
	log.Infof(log.ConfigMgr, "Sizing: %v quantity %v fraction %v",
		c.PortfolioSettings.Sizing.Method,
		c.PortfolioSettings.Sizing.Quantity,
		c.PortfolioSettings.Sizing.Fraction)
	log.Infof(log.ConfigMgr, "Allow short: %v allow margin: %v", c.PortfolioSettings.AllowShort, c.PortfolioSettings.AllowMargin)
	if c.PortfolioSettings.OrderType != "" {
		log.Infof(log.ConfigMgr, "Order type: %v limit offset: %v bps", c.PortfolioSettings.OrderType, c.PortfolioSettings.LimitOffsetBasisPoints)
	}
	log.Infof(log.ConfigMgr, "Fill price: %v commission: %v slippage: %v seed: %v",
		c.ExecutionSettings.FillPrice,
		c.ExecutionSettings.Commission.Model,
		c.ExecutionSettings.Slippage.Model,
		c.ExecutionSettings.Seed)
	log.Infof(log.ConfigMgr, "-------------------------------------------------------------")
}
