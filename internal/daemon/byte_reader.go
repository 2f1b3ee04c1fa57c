// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package daemon

import (
	"context"
	"time"

	"github.com/go-modbus-rtu/slave/internal/queue"
	"github.com/go-modbus-rtu/slave/internal/serialio"
)

// RunByteReader is the "serial-in" task of §2/§5: it repeatedly issues
// a 1-byte InputRequest to the serial manager and, for every byte that
// arrives, pushes a timestamped ReadChar event into the daemon's
// queue via SendFromISR — the non-blocking ISR-producer path, since
// this goroutine stands in for an interrupt handler in the embedded
// original. It runs until ctx is cancelled.
func RunByteReader(ctx context.Context, mgr *serialio.Manager, events *queue.Queue[Event]) {
	replies := queue.New[int](1)
	var one [1]byte

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := mgr.Input.Send(ctx, serialio.InputRequest{Buffer: one[:], Reply: replies}, queue.Forever); err != nil {
			return
		}
		n, err := replies.Receive(ctx, queue.Forever)
		if err != nil {
			return
		}
		if n != 1 {
			continue
		}
		_ = events.SendFromISR(ReadChar{TimestampUs: nowMicros(), Byte: one[0]})
	}
}

// clockStart is the origin of the monotonic clock nowMicros reads.
var clockStart = time.Now()

// nowMicros returns a monotonic microsecond timestamp. It is a var so
// tests can substitute a deterministic clock.
var nowMicros = func() int64 {
	return time.Since(clockStart).Microseconds()
}
