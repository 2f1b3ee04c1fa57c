// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-modbus-rtu/slave/internal/adcsim"
	"github.com/go-modbus-rtu/slave/internal/config"
	"github.com/go-modbus-rtu/slave/internal/daemon"
	"github.com/go-modbus-rtu/slave/internal/serialio"
	"github.com/go-modbus-rtu/slave/modbus/rtu"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)
	slog.Info("Starting Modbus RTU slave...", "slave_address", cfg.SlaveAddress)

	storage, err := newStorage(cfg.ADC.Storage, cfg.ADC.Channels)
	if err != nil {
		slog.Error("Failed to initialize ADC storage", "err", err)
		os.Exit(1)
	}

	sampler, err := adcsim.NewSampler(cfg.ADC.Channels, cfg.ADC.SampleInterval, nil, storage)
	if err != nil {
		slog.Error("Failed to initialize ADC sampler", "err", err)
		os.Exit(1)
	}
	handler := adcsim.NewHandler(sampler)

	mgr := serialio.New(serialio.Config{
		Device:   cfg.Serial.Device,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		Parity:   cfg.Serial.Parity,
		StopBits: cfg.Serial.StopBits,
		Timeout:  500 * time.Millisecond,
	}, cfg.QueueDepth, cfg.QueueDepth)
	if err := mgr.Open(); err != nil {
		slog.Error("Failed to open serial port", "err", err)
		os.Exit(1)
	}
	defer mgr.Close()

	d := daemon.New(daemon.Config{
		SlaveAddress:    cfg.SlaveAddress,
		Timing:          rtu.TimingFor(rtu.ParseProfile(cfg.TimingProfile)),
		EventQueueDepth: cfg.QueueDepth,
	}, handler, mgr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go mgr.Run(ctx)
	go sampler.Run(ctx)
	go daemon.RunByteReader(ctx, mgr, d.Events())
	go d.Run(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()
	if err := storage.Close(); err != nil {
		slog.Warn("Error closing ADC storage", "err", err)
	}
	slog.Info("Goodbye.")
}

func newStorage(cfg config.StorageConfig, channels int) (adcsim.Storage, error) {
	switch cfg.Type {
	case "mmap":
		return adcsim.NewMmapStorage(cfg.Path, channels), nil
	default:
		return adcsim.NewMemoryStorage(), nil
	}
}

func setupLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Failed to open log file, falling back to stdout: %v\n", err)
			handler = slog.NewTextHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
