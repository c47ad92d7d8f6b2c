// board4go is a single-order wall-chasing engine for Bybit: it watches one
// side of one symbol's order book, and whenever the best resting wall moves,
// cancels its own order and replaces it one tick ahead of the new wall,
// until the configured size is filled.
//
// Architecture:
//
//	main.go                    — entry point: loads config, starts the command API, waits for SIGINT/SIGTERM
//	internal/api               — C9 command surface: start/stop/get/post/put/delete controller, instruments, ticker, logger
//	internal/pipeline          — C5 runner: ticker/position/book-scan/order-manager stages under one tomb.Tomb
//	internal/board             — C1/C2 order book mirror + wall-scan predicate
//	internal/order             — C3 managed-order spacing/state
//	internal/position          — C4 position aggregation
//	internal/exchange          — C6 Bybit V5 REST+WS adapter
//	internal/controller        — C7 validated run config + log buffer
//	internal/config            — C8 viper-backed config loader
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/howlrs/board4go/internal/api"
	"github.com/howlrs/board4go/internal/config"
)

func main() {
	logger, closeLog := newLogger()
	defer closeLog()

	cfgPath := "configs/config.yaml"
	if p := os.Getenv("BOARD4GO_CONFIG"); p != "" {
		cfgPath = p
	}

	ctl, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}

	addr := ":8090"
	if a := os.Getenv("BOARD4GO_ADDR"); a != "" {
		addr = a
	}

	server := api.NewServer(addr, ctl, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("command api failed", "error", err)
		}
	}()
	logger.Info("board4go started", "addr", addr, "symbol", ctl.Order.Symbol, "exchange", ctl.Exchange.Name)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if err := server.Stop(); err != nil {
		logger.Error("failed to stop command api", "error", err)
	}
}

// newLogger builds the root slog.Logger per §6: RUST_LOG=error selects a
// JSON handler writing to OUTPUT_LOGFILE (resolved against the working
// directory, matching the original source's env::current_dir().join(...)
// rather than an absolute path); any other level selects a text handler on
// stdout. The returned closer flushes/closes the log file, if one was opened.
func newLogger() (*slog.Logger, func()) {
	level := os.Getenv("RUST_LOG")

	if strings.EqualFold(level, "error") {
		outputFilename := os.Getenv("OUTPUT_LOGFILE")
		if outputFilename == "" {
			outputFilename = "output.log"
		}

		wd, err := os.Getwd()
		if err == nil {
			path := filepath.Join(wd, outputFilename)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelError})
				return slog.New(handler), func() { _ = f.Close() }
			}
		}
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler), func() {}
}
