// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package alarm provides the one-shot microsecond timer the RTU
// daemon uses to detect inter-character and inter-frame silence.
// Cancellation is advisory: a Timeout may already be in flight to the
// consumer queue by the time Cancel runs, so callers must disambiguate
// by comparing the ID carried on the Timeout against the ID they
// currently expect (see daemon.Daemon).
package alarm

import (
	"sync"
	"sync/atomic"
	"time"
)

// ID identifies one scheduled alarm. The zero ID denotes "no alarm"
// and is never handed out by Set.
type ID uint64

// Callback runs on the alarm's own goroutine — standing in for ISR
// context in the embedded original — when the alarm fires. It must
// not touch daemon state directly; it may only enqueue, typically via
// a queue.Queue's SendFromISR. A negative return value requests
// rescheduling the same alarm after -ret microseconds.
type Callback func(id ID) (rescheduleAfterUs int64)

// Service schedules one-shot alarms. The zero value is ready to use.
type Service struct {
	next atomic.Uint64

	mu     sync.Mutex
	timers map[ID]*time.Timer
}

// Set schedules callback to fire no earlier than durationUs
// microseconds from now and returns the ID the eventual Timeout will
// carry.
func (s *Service) Set(durationUs int64, callback Callback) ID {
	id := ID(s.next.Add(1))
	s.arm(durationUs, id, callback)
	return id
}

func (s *Service) arm(durationUs int64, id ID, callback Callback) {
	var t *time.Timer
	t = time.AfterFunc(time.Duration(durationUs)*time.Microsecond, func() {
		s.forget(id, t)
		reschedule := callback(id)
		if reschedule < 0 {
			s.arm(-reschedule, id, callback)
		}
	})

	s.mu.Lock()
	if s.timers == nil {
		s.timers = make(map[ID]*time.Timer)
	}
	s.timers[id] = t
	s.mu.Unlock()
}

func (s *Service) forget(id ID, t *time.Timer) {
	s.mu.Lock()
	if s.timers[id] == t {
		delete(s.timers, id)
	}
	s.mu.Unlock()
}

// Cancel best-effort stops the timer backing id. Per Design Note
// "Alarm race": once the timer has expired, time.Timer.Stop is a no-op
// and the fire func has already started on its own goroutine, so the
// callback may still enqueue a Timeout after Cancel returns. AlarmId
// matching at the consumer is the only correct way to disambiguate;
// Cancel reports nothing about which case occurred.
func (s *Service) Cancel(id ID) {
	s.mu.Lock()
	t := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()

	if t != nil {
		t.Stop()
	}
}
