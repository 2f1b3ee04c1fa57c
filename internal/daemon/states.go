// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package daemon

import "github.com/go-modbus-rtu/slave/internal/alarm"

// State is the tagged union DaemonState from §3. The receive buffer
// and the current alarm ID are owned by the Daemon itself (§3
// "Ownership and lifecycle"); State only tags which phase of the
// frame lifecycle the daemon is in and, where relevant, the alarm.ID
// currently expected.
type State interface {
	daemonState()
}

// Initial is armed with an inter-frame alarm; the line may still be
// busy finishing a frame the daemon doesn't care about.
type Initial struct {
	Alarm alarm.ID
}

func (Initial) daemonState() {}

// Ready means the bus is idle: the daemon may start receiving or may
// transmit a queued reply.
type Ready struct{}

func (Ready) daemonState() {}

// Reception is accumulating a frame into the daemon's buffer.
type Reception struct {
	Alarm alarm.ID
}

func (Reception) daemonState() {}

// Processing means the handler has produced a reply and the daemon is
// waiting out the post-frame silence gap before queuing it for
// transmission.
type Processing struct {
	Alarm alarm.ID
}

func (Processing) daemonState() {}

// Emission means a reply has been handed to the serial output manager
// and the daemon is waiting for its completion acknowledgement.
type Emission struct{}

func (Emission) daemonState() {}
