// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package daemon

import (
	"github.com/go-modbus-rtu/slave/internal/alarm"
	"github.com/go-modbus-rtu/slave/modbus/rtu"
)

// Event is the tagged union DaemonEvent from §3: ReadChar, Timeout,
// PendingReply or BytesWritten. It is a sealed interface — the
// unexported marker method restricts implementations to this package
// — and every state handler in daemon.go switches on it exhaustively.
type Event interface {
	daemonEvent()
}

// ReadChar reports one byte arriving off the wire at TimestampUs,
// microseconds on the daemon's monotonic clock.
type ReadChar struct {
	TimestampUs int64
	Byte        byte
}

func (ReadChar) daemonEvent() {}

// Timeout reports an alarm firing. AlarmID must be compared against
// the daemon's currently-expected alarm.ID before acting on it — see
// Design Note "Alarm race".
type Timeout struct {
	AlarmID alarm.ID
}

func (Timeout) daemonEvent() {}

// PendingReply instructs the state machine to transmit Message,
// pushed to the head of the daemon's own queue by the Processing
// state so it is observed before any ReadChar events buffered by a
// concurrently running byte-reader task (§5's FIFO-vs-sendFront
// ordering guarantee).
type PendingReply struct {
	Message rtu.Message
}

func (PendingReply) daemonEvent() {}

// BytesWritten reports the serial output manager finished transmitting
// the Emission state's reply.
type BytesWritten struct {
	Count int
}

func (BytesWritten) daemonEvent() {}
