// Package config implements the C8 Config Loader: a viper-backed reader
// that produces a controller.Controller from a YAML file plus
// BOARD4GO_* environment overrides (validation is left to the caller's
// Controller.Ok() call), generalizing the teacher's own
// Load/Validate pair to the distilled spec's Controller.Ok() check.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/howlrs/board4go/internal/board"
	"github.com/howlrs/board4go/internal/controller"
	"github.com/howlrs/board4go/internal/exchange"
	"github.com/howlrs/board4go/internal/order"
)

// File is the on-disk shape loaded by viper: the same fields as
// controller.Controller, but with Order.Size/TickSize as strings since
// decimal.Decimal has no mapstructure hook wired by default and YAML
// numeric literals lose precision that a fixed-point price/size field
// cannot afford.
type File struct {
	IsRunning bool `mapstructure:"is_running"`
	Exchange  struct {
		Name       string  `mapstructure:"name"`
		Key        string  `mapstructure:"key"`
		Secret     string  `mapstructure:"secret"`
		Passphrase *string `mapstructure:"passphrase"`
		Category   *string `mapstructure:"category"`
	} `mapstructure:"exchange"`
	Board struct {
		Side    string  `mapstructure:"side"`
		High    float64 `mapstructure:"high"`
		Low     float64 `mapstructure:"low"`
		SizeMin float64 `mapstructure:"size_min"`
	} `mapstructure:"board"`
	Order struct {
		Symbol      string `mapstructure:"symbol"`
		Side        string `mapstructure:"side"`
		Size        string `mapstructure:"size"`
		IsPostOnly  bool   `mapstructure:"is_post_only"`
		TickSize    string `mapstructure:"tick_size"`
		IntervalSec int64  `mapstructure:"interval_sec"`
	} `mapstructure:"order"`
}

// Load reads path via viper with BOARD4GO_* environment overrides for the
// credential fields, and converts the result into a controller.Controller.
// It does not call Ok(); callers decide when validation runs (the command
// API validates on start_controller/post_controller, matching the
// distilled spec's command semantics).
func Load(path string) (controller.Controller, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BOARD4GO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return controller.Controller{}, fmt.Errorf("read config: %w", err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return controller.Controller{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("BOARD4GO_EXCHANGE_KEY"); key != "" {
		f.Exchange.Key = key
	}
	if secret := os.Getenv("BOARD4GO_EXCHANGE_SECRET"); secret != "" {
		f.Exchange.Secret = secret
	}

	return f.toController()
}

func (f File) toController() (controller.Controller, error) {
	size := decimal.Zero
	if f.Order.Size != "" {
		parsed, err := decimal.NewFromString(f.Order.Size)
		if err != nil {
			return controller.Controller{}, fmt.Errorf("order.size: %w", err)
		}
		size = parsed
	}

	orderCfg := order.NewConfig(f.Order.Symbol, size, parseOrderSide(f.Order.Side))
	orderCfg.IsPostOnly = f.Order.IsPostOnly
	if f.Order.IntervalSec > 0 {
		orderCfg.IntervalSec = f.Order.IntervalSec
	}
	if f.Order.TickSize != "" {
		tick, err := decimal.NewFromString(f.Order.TickSize)
		if err != nil {
			return controller.Controller{}, fmt.Errorf("order.tick_size: %w", err)
		}
		orderCfg.TickSize = tick
	}

	return controller.Controller{
		IsRunning: f.IsRunning,
		Exchange: exchange.Config{
			Name:       exchange.ParseName(f.Exchange.Name),
			Key:        f.Exchange.Key,
			Secret:     f.Exchange.Secret,
			Passphrase: f.Exchange.Passphrase,
			Category:   f.Exchange.Category,
		},
		Board: board.FilterConfig{
			Side:    parseBoardSide(f.Board.Side),
			High:    f.Board.High,
			Low:     f.Board.Low,
			SizeMin: f.Board.SizeMin,
		},
		Order: orderCfg,
	}, nil
}

func parseOrderSide(s string) order.Side {
	if strings.EqualFold(s, "sell") {
		return order.Sell
	}
	return order.Buy
}

func parseBoardSide(s string) board.Side {
	if strings.EqualFold(s, "bid") {
		return board.Bid
	}
	return board.Ask
}
