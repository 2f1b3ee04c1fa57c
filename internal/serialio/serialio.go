// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package serialio owns the UART and exposes it to the rest of the
// slave engine exclusively through two queues, matching §4.3: an
// InputQueue of InputRequest and an OutputQueue of OutputRequest. No
// other component touches the port directly.
package serialio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-modbus-rtu/slave/internal/queue"
	"github.com/grid-x/serial"
)

// Config mirrors the serial line parameters §6 calls out as supplied
// by the serial manager, outside the core spec.
type Config struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	Timeout  time.Duration
}

// InputRequest asks the manager to fill Buffer with up to len(Buffer)
// bytes and report the actual count over Reply.
type InputRequest struct {
	Buffer []byte
	Reply  *queue.Queue[int]
}

// OutputRequest asks the manager to write Payload and report
// completion over Reply. Release, when non-nil, is invoked after the
// write completes — the Go substitute for the spec's
// owned-slice-with-deleter payload variant; borrowed payloads simply
// pass a nil Release.
type OutputRequest struct {
	Payload []byte
	Release func()
	Reply   *queue.Queue[BytesWritten]
}

// BytesWritten reports how many bytes an OutputRequest actually wrote.
type BytesWritten struct {
	Count int
}

// Manager owns the UART and serves InputQueue/OutputQueue. Completion
// for request N — the BytesWritten it emits — is always delivered
// before the manager dequeues request N+1, matching §4.3's ordering
// guarantee; this falls out naturally from the single serial-write
// goroutine processing OutputQueue strictly in order.
type Manager struct {
	cfg   Config
	port  io.ReadWriteCloser
	Input *queue.Queue[InputRequest]
	// Output is exported so the daemon can post a PendingReply payload,
	// as it moves from Ready to Emission, without an extra indirection
	// layer.
	Output *queue.Queue[OutputRequest]
}

// New creates a Manager with the given queue depths. Open must be
// called before Run.
func New(cfg Config, inputDepth, outputDepth int) *Manager {
	return &Manager{
		cfg:    cfg,
		Input:  queue.New[InputRequest](inputDepth),
		Output: queue.New[OutputRequest](outputDepth),
	}
}

// Open opens the underlying UART.
func (m *Manager) Open() error {
	port, err := serial.Open(&serial.Config{
		Address:  m.cfg.Device,
		BaudRate: m.cfg.BaudRate,
		DataBits: m.cfg.DataBits,
		Parity:   m.cfg.Parity,
		StopBits: m.cfg.StopBits,
		Timeout:  m.cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("serialio: open %s: %w", m.cfg.Device, err)
	}
	m.port = port
	return nil
}

// Close releases the UART.
func (m *Manager) Close() error {
	if m.port == nil {
		return nil
	}
	return m.port.Close()
}

// Run serves InputQueue and OutputQueue until ctx is cancelled. It is
// meant to be started as its own goroutine/task, per §5.
func (m *Manager) Run(ctx context.Context) {
	go m.serveInput(ctx)
	m.serveOutput(ctx)
}

func (m *Manager) serveInput(ctx context.Context) {
	for {
		req, err := m.Input.Receive(ctx, queue.Forever)
		if err != nil {
			return
		}
		n, err := m.port.Read(req.Buffer)
		if err != nil {
			n = 0
			slog.Debug("serialio: read error", "err", err)
		}
		_ = req.Reply.SendFromISR(n)
	}
}

func (m *Manager) serveOutput(ctx context.Context) {
	for {
		req, err := m.Output.Receive(ctx, queue.Forever)
		if err != nil {
			return
		}
		n, err := m.port.Write(req.Payload)
		if err != nil {
			slog.Warn("serialio: write error", "err", err)
		}
		if req.Release != nil {
			req.Release()
		}
		if req.Reply != nil {
			_ = req.Reply.SendFromISR(BytesWritten{Count: n})
		}
	}
}
