// go-nfcv-bridge
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nfcv-bridge.
//
// go-nfcv-bridge is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nfcv-bridge is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nfcv-bridge; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	bridge "github.com/ZaparooProject/go-nfcv-bridge"
	"github.com/ZaparooProject/go-nfcv-bridge/internal/config"
	virt "github.com/ZaparooProject/go-nfcv-bridge/internal/testing"
	"github.com/ZaparooProject/go-nfcv-bridge/iso15693"
	"github.com/ZaparooProject/go-nfcv-bridge/notify/ble"
	"github.com/ZaparooProject/go-nfcv-bridge/notify/uart"
	"github.com/ZaparooProject/go-nfcv-bridge/notify/ws"
	"github.com/ZaparooProject/go-nfcv-bridge/polling"
	"github.com/ZaparooProject/go-nfcv-bridge/storage/filestore"
	"github.com/ZaparooProject/go-nfcv-bridge/transport/st25r3911"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("config validation failed: %w", err)
			}
			config.Normalize(cfg)
			if cfg.Log.Debug {
				bridge.SetDebugEnabled(true)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "/etc/nfcv-bridge/bridge.yaml", "Configuration file")
	return cmd
}

// daemon collects what run opens so it can be released in reverse order
type daemon struct {
	bridge   *bridge.Bridge
	closers  []io.Closer
	starters []func(ctx context.Context) error
}

func (d *daemon) onTimestamp(v uint32) {
	d.bridge.OnTimestampWrite(v)
}

func (d *daemon) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			bridge.Logger().Warn().Err(err).Msg("shutdown")
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	d := &daemon{}
	defer d.close()

	transport, watcher, err := openFrontend(ctx, cfg.Frontend)
	if err != nil {
		return err
	}

	notifiers, err := d.openNotifiers(cfg.Notify)
	if err != nil {
		_ = transport.Close()
		return err
	}

	opts := []bridge.Option{
		bridge.WithPollPolicy(bridge.PollPolicy(cfg.Bridge.Policy)),
		bridge.WithWakeUp(*cfg.Bridge.WakeUp),
		bridge.WithCooldownTicks(cfg.Bridge.CooldownTicks),
		bridge.WithNotifier(notifiers),
		bridge.WithBatterySource(batterySource(cfg.Battery)),
	}
	if cfg.Storage.Path != "" {
		store, err := filestore.Open(cfg.Storage.Path, filestore.Options{
			Capacity:    cfg.Storage.Capacity,
			GCThreshold: *cfg.Storage.GCThreshold,
		})
		if err != nil {
			_ = transport.Close()
			return err
		}
		d.closers = append(d.closers, store)
		opts = append(opts, bridge.WithStore(store))
	}

	b, err := bridge.New(transport, opts...)
	if err != nil {
		_ = transport.Close()
		return err
	}
	d.bridge = b

	runner := polling.NewRunner(b, nil)
	d.closers = append(d.closers, runner)
	if watcher != nil {
		runner.SetInterruptWatcher(watcher)
	}
	runner.OnSensorDetected = func(uid bridge.UID) {
		bridge.Logger().Info().Stringer("uid", uid).Msg("sensor detected")
	}
	runner.OnSensorChanged = func(uid bridge.UID) {
		bridge.Logger().Info().Stringer("uid", uid).Msg("sensor changed")
	}
	runner.OnSensorRemoved = func(uid bridge.UID) {
		bridge.Logger().Info().Stringer("uid", uid).Msg("sensor removed")
	}

	for _, start := range d.starters {
		if err := start(ctx); err != nil {
			return err
		}
	}

	bridge.Logger().Info().Str("policy", cfg.Bridge.Policy).Str("frontend", cfg.Frontend.Type).Msg("bridge running")
	err = runner.Run(ctx)
	m := runner.Metrics()
	bridge.Logger().Info().Int64("cycles", m.Cycles).Int64("syncs", m.Syncs).Msg("bridge stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openFrontend(ctx context.Context, cfg config.FrontendConfig) (bridge.NFCTransport, polling.InterruptWatcher, error) {
	if cfg.Type == config.FrontendMock {
		sensor := virt.NewVirtualSensor(virt.TestSensorUID)
		go ageSensor(ctx, sensor)
		return bridge.NewMockTransport(sensor), nil, nil
	}

	dev, err := st25r3911.Open(cfg.SPI, cfg.IRQ)
	if err != nil {
		return nil, nil, err
	}
	reader := iso15693.NewReader(dev, nil)
	if cfg.IRQ == "" {
		return reader, nil, nil
	}
	return reader, dev, nil
}

// ageSensor advances the simulated sensor by one minute every minute
func ageSensor(ctx context.Context, sensor *virt.VirtualSensor) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sensor.Advance(1)
		}
	}
}

func (d *daemon) openNotifiers(cfg config.NotifyConfig) (bridge.MultiNotifier, error) {
	var out bridge.MultiNotifier

	if cfg.BLE != nil {
		p := ble.NewPeripheral(nil, cfg.BLE.NamePrefix, d.onTimestamp)
		out = append(out, p)
		d.starters = append(d.starters, func(context.Context) error { return p.Start() })
	}

	if cfg.UART != nil {
		port := cfg.UART.Port
		if port == uart.AutoPort {
			detected, err := uart.Detect(uart.DetectOptions{Blocklist: cfg.UART.Blocklist})
			if err != nil {
				return nil, err
			}
			bridge.Logger().Info().Str("port", detected).Msg("using detected serial port")
			port = detected
		}
		n, err := uart.Open(port, cfg.UART.Baud)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		d.closers = append(d.closers, n)
		d.starters = append(d.starters, func(ctx context.Context) error {
			go func() {
				if err := n.Listen(ctx, d.onTimestamp); err != nil && !errors.Is(err, context.Canceled) {
					bridge.Logger().Error().Err(err).Msg("uart listener stopped")
				}
			}()
			return nil
		})
	}

	if cfg.WebSocket != nil {
		hub := ws.NewHub(d.onTimestamp)
		mux := http.NewServeMux()
		mux.Handle(cfg.WebSocket.Path, hub)
		srv := &http.Server{
			Addr:              cfg.WebSocket.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		out = append(out, hub)
		d.closers = append(d.closers, hub, srv)
		d.starters = append(d.starters, func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("websocket listen: %w", err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					bridge.Logger().Error().Err(err).Msg("websocket server stopped")
				}
			}()
			return nil
		})
	}

	return out, nil
}

func batterySource(cfg config.BatteryConfig) bridge.BatterySource {
	if cfg.Path != "" {
		return sysfsBattery{path: cfg.Path}
	}
	return bridge.StaticBattery(cfg.Static)
}
