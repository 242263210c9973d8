// Package config externalizes the matching engine's tunable business
// rules — the market-order slippage bound and the DAY time-in-force
// duration — instead of hardcoding them, the way the rest of the
// order-matching ecosystem does via spf13/viper.
package config

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	defaultMarketSlippageTolerance = "0.05"
	defaultDayOrderDuration        = 24 * time.Hour

	keySlippageTolerance = "market_slippage_tolerance"
	keyDayOrderDuration  = "day_order_duration"
	envPrefix            = "MATCHCORE"
)

// Config holds the tunables consumed by internal/match and the
// matchcore service façade.
type Config struct {
	// MarketSlippageTolerance is the fraction (e.g. 0.05 == 5%) a market
	// order's reference price may move against the requester before the
	// order is rejected (spec.md §4.5 step 4c).
	MarketSlippageTolerance decimal.Decimal
	// DayOrderDuration is added to CreatedAt to compute a DAY order's
	// ExpiresAt (spec.md §3).
	DayOrderDuration time.Duration
}

// Default returns the spec-mandated defaults: 5% slippage tolerance, 24h
// DAY duration.
func Default() Config {
	return Config{
		MarketSlippageTolerance: decimal.RequireFromString(defaultMarketSlippageTolerance),
		DayOrderDuration:        defaultDayOrderDuration,
	}
}

// Load builds a Config from defaults overridden by environment variables
// (MATCHCORE_MARKET_SLIPPAGE_TOLERANCE, MATCHCORE_DAY_ORDER_DURATION) and,
// if configured via opts, a config file. Each call uses its own viper
// instance (viper.New()) so multiple engines in one process — as in
// tests — never share global configuration state.
func Load(opts ...Option) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault(keySlippageTolerance, defaultMarketSlippageTolerance)
	v.SetDefault(keyDayOrderDuration, defaultDayOrderDuration.String())

	var usingFile bool
	for _, opt := range opts {
		opt(v)
		usingFile = true
	}

	if usingFile {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	tolerance, err := decimal.NewFromString(v.GetString(keySlippageTolerance))
	if err != nil {
		return Config{}, err
	}

	duration, err := time.ParseDuration(v.GetString(keyDayOrderDuration))
	if err != nil {
		return Config{}, err
	}

	return Config{
		MarketSlippageTolerance: tolerance,
		DayOrderDuration:        duration,
	}, nil
}

// Option customizes the viper instance used by Load, e.g. to point at a
// config file on disk.
type Option func(*viper.Viper)

// WithConfigFile points Load at an explicit configuration file path.
func WithConfigFile(path string) Option {
	return func(v *viper.Viper) {
		v.SetConfigFile(path)
	}
}
