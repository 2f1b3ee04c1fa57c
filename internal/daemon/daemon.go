// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package daemon implements the RTU slave state machine (§4.6): it
// turns ReadChar/Timeout/PendingReply/BytesWritten events into
// complete frames, dispatches them through internal/pdu, and
// serialises the reply respecting bus silence.
package daemon

import (
	"context"
	"log/slog"

	"github.com/go-modbus-rtu/slave/internal/alarm"
	"github.com/go-modbus-rtu/slave/internal/pdu"
	"github.com/go-modbus-rtu/slave/internal/queue"
	"github.com/go-modbus-rtu/slave/internal/serialio"
	"github.com/go-modbus-rtu/slave/modbus/rtu"
)

// Config bundles the pieces the daemon needs that §6 calls out as
// configuration constants.
type Config struct {
	SlaveAddress byte
	Timing       rtu.Timing
	// EventQueueDepth must be at least 32 per §6; New uses 32 when it
	// is zero or negative.
	EventQueueDepth int
}

// Daemon is the RTU slave state machine. It owns the single receive
// buffer and the currently-armed alarm. Apart from receiving from its
// own event queue, it waits only when a send finds a queue full: the
// reply it pushes back onto its own queue, or the request it posts to
// the serial output queue.
type Daemon struct {
	cfg     Config
	handler pdu.Handler
	alarms  *alarm.Service
	events  *queue.Queue[Event]
	out     *serialio.Manager
	acks    *queue.Queue[serialio.BytesWritten]

	buf rtu.Message
}

// New constructs a Daemon. out may be nil for tests that exercise the
// state machine without a real serial output manager. With a nil out a
// non-empty reply is not transmitted: the daemon still enters Emission
// and stays there, since no BytesWritten ever arrives.
func New(cfg Config, handler pdu.Handler, out *serialio.Manager) *Daemon {
	if cfg.EventQueueDepth <= 0 {
		cfg.EventQueueDepth = 32
	}
	return &Daemon{
		cfg:     cfg,
		handler: handler,
		alarms:  &alarm.Service{},
		events:  queue.New[Event](cfg.EventQueueDepth),
		out:     out,
		acks:    queue.New[serialio.BytesWritten](4),
	}
}

// Events exposes the daemon's input queue so a byte-reader task
// (see RunByteReader) and the alarm service can feed it.
func (d *Daemon) Events() *queue.Queue[Event] {
	return d.events
}

// Alarms exposes the alarm service so a byte-reader task can reuse
// the same Service instance if desired. Most callers don't need this:
// the daemon arms all of its own alarms internally.
func (d *Daemon) Alarms() *alarm.Service {
	return d.alarms
}

// Run drives the state machine until ctx is cancelled. It is meant to
// be the body of the daemon's own task/goroutine, per §5 — it waits in
// events.Receive, and otherwise only in a send to a full queue.
func (d *Daemon) Run(ctx context.Context) {
	if d.out != nil {
		go d.forwardAcks(ctx)
	}

	state := State(Initial{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)})
	for {
		ev, err := d.events.Receive(ctx, queue.Forever)
		if err != nil {
			return
		}
		state = d.step(ctx, state, ev)
	}
}

func (d *Daemon) forwardAcks(ctx context.Context) {
	for {
		ack, err := d.acks.Receive(ctx, queue.Forever)
		if err != nil {
			return
		}
		_ = d.events.SendFromISR(BytesWritten{Count: ack.Count})
	}
}

func (d *Daemon) armAlarm(timing interface{ Microseconds() int64 }) alarm.ID {
	return d.alarms.Set(timing.Microseconds(), func(id alarm.ID) int64 {
		_ = d.events.SendFromISR(Timeout{AlarmID: id})
		return 0
	})
}

// drainStaleTimeouts removes the Timeout events already sitting at the
// head of the queue that carry the ID of the alarm just cancelled — the
// "drain any already-enqueued stale Timeout events from the queue
// head" step of Reception's ReadChar handling. It stops at the first
// event that is not a Timeout or that carries any other ID, leaving it
// in place.
func (d *Daemon) drainStaleTimeouts(ctx context.Context, cancelled alarm.ID) {
	for {
		ev, err := d.events.Peek(ctx, 0)
		if err != nil {
			return
		}
		t, ok := ev.(Timeout)
		if !ok || t.AlarmID != cancelled {
			return
		}
		_, _ = d.events.Receive(ctx, 0)
	}
}

func (d *Daemon) step(ctx context.Context, state State, ev Event) State {
	switch s := state.(type) {
	case Initial:
		return d.stepInitial(s, ev)
	case Ready:
		return d.stepReady(ctx, s, ev)
	case Reception:
		return d.stepReception(ctx, s, ev)
	case Processing:
		return d.stepProcessing(ctx, s, ev)
	case Emission:
		return d.stepEmission(s, ev)
	default:
		panic("daemon: unhandled state")
	}
}

func (d *Daemon) stepInitial(s Initial, ev Event) State {
	switch e := ev.(type) {
	case ReadChar:
		d.alarms.Cancel(s.Alarm)
		return Initial{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	case Timeout:
		if e.AlarmID != s.Alarm {
			return s
		}
		return Ready{}
	default:
		return s
	}
}

func (d *Daemon) stepReady(ctx context.Context, s Ready, ev Event) State {
	switch e := ev.(type) {
	case ReadChar:
		d.buf.Reset()
		d.buf.AppendByte(e.Byte)
		return Reception{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	case PendingReply:
		if e.Message.Len() == 0 {
			return s
		}
		d.emit(ctx, e.Message)
		return Emission{}
	default:
		return s
	}
}

func (d *Daemon) stepReception(ctx context.Context, s Reception, ev Event) State {
	switch e := ev.(type) {
	case ReadChar:
		d.buf.AppendByte(e.Byte)
		d.alarms.Cancel(s.Alarm)
		d.drainStaleTimeouts(ctx, s.Alarm)
		return Reception{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	case Timeout:
		if e.AlarmID != s.Alarm {
			return s
		}
		return d.completeFrame()
	default:
		// Framing error: anything other than ReadChar/matching-Timeout
		// while accumulating a frame sends us back to Initial.
		return Initial{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	}
}

// completeFrame validates the accumulated buffer's CRC and, if valid,
// invokes the handler in place (indication and reply alias the same
// buffer). An invalid CRC is a protocol error (§7 item 1): silently
// dropped, no reply, straight back to Initial.
func (d *Daemon) completeFrame() State {
	if !d.buf.ValidCRC() {
		slog.Debug("daemon: dropping frame with bad CRC", "len", d.buf.Len())
		return Initial{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	}

	pdu.HandleIndication(d.handler, d.cfg.SlaveAddress, &d.buf, &d.buf)

	postFrame := d.cfg.Timing.InterFrame - d.cfg.Timing.InterChar
	return Processing{Alarm: d.armAlarm(postFrame)}
}

func (d *Daemon) stepProcessing(ctx context.Context, s Processing, ev Event) State {
	switch e := ev.(type) {
	case Timeout:
		if e.AlarmID != s.Alarm {
			return s
		}
		// Pushed to the head of our own queue so it is observed before
		// any ReadChar already buffered by a concurrent byte-reader
		// task — §5's sendFront ordering guarantee.
		_ = d.events.SendFront(ctx, PendingReply{Message: d.buf}, queue.Forever)
		return Ready{}
	default:
		return Initial{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	}
}

func (d *Daemon) stepEmission(s Emission, ev Event) State {
	switch ev.(type) {
	case BytesWritten:
		return Initial{Alarm: d.armAlarm(d.cfg.Timing.InterFrame)}
	default:
		return s
	}
}

func (d *Daemon) emit(ctx context.Context, msg rtu.Message) {
	if d.out == nil {
		return
	}
	payload := append([]byte(nil), msg.Bytes()...)
	_ = d.out.Output.Send(ctx, serialio.OutputRequest{
		Payload: payload,
		Reply:   d.acks,
	}, queue.Forever)
}
