// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package adcsim

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Storage persists the input-register table the Sampler publishes
// into, so a restart can resume from the last sampled values instead
// of zeroing every channel. OnWrite is called once per sampling tick,
// after every channel has been written for that tick.
type Storage interface {
	// Load returns the register values to start from. A fresh backend
	// (no prior file, or a MemoryStorage) returns a zeroed slice.
	Load(channels int) ([]uint16, error)

	// Snapshot persists the current values of all channels.
	Snapshot(values []uint16) error

	// OnWrite is a hook called after each sampling tick, letting a
	// backend choose its own flush cadence independent of Snapshot.
	OnWrite(values []uint16)

	Close() error
}

// MemoryStorage is a no-op backend: nothing survives a restart. It is
// the default for tests and for deployments with no durability
// requirement.
type MemoryStorage struct{}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (MemoryStorage) Load(channels int) ([]uint16, error) { return make([]uint16, channels), nil }
func (MemoryStorage) Snapshot([]uint16) error              { return nil }
func (MemoryStorage) OnWrite([]uint16)                     {}
func (MemoryStorage) Close() error                         { return nil }

// MmapStorage backs the input-register table with a memory-mapped
// file, two bytes per channel in big-endian (matching the wire
// representation the PDU layer already uses elsewhere), via
// github.com/edsrzf/mmap-go rather than raw syscalls.
type MmapStorage struct {
	path     string
	channels int
	file     *os.File
	data     mmap.MMap
}

func NewMmapStorage(path string, channels int) *MmapStorage {
	return &MmapStorage{path: path, channels: channels}
}

func (ms *MmapStorage) Load(channels int) ([]uint16, error) {
	ms.channels = channels
	size := int64(channels * 2)

	f, err := os.OpenFile(ms.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("adcsim: open mmap file: %w", err)
	}
	ms.file = f

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, fmt.Errorf("adcsim: resize mmap file: %w", err)
		}
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("adcsim: mmap: %w", err)
	}
	ms.data = data

	values := make([]uint16, channels)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return values, nil
}

func (ms *MmapStorage) Snapshot(values []uint16) error {
	if ms.data == nil {
		return nil
	}
	for i, v := range values {
		binary.BigEndian.PutUint16(ms.data[2*i:], v)
	}
	return ms.data.Flush()
}

// OnWrite snapshots every tick. A noisier deployment could throttle
// this, but input-register writes are already rate-limited by the
// sampler's own tick interval.
func (ms *MmapStorage) OnWrite(values []uint16) {
	_ = ms.Snapshot(values)
}

func (ms *MmapStorage) Close() error {
	if ms.data != nil {
		if err := ms.data.Unmap(); err != nil {
			return err
		}
		ms.data = nil
	}
	if ms.file != nil {
		return ms.file.Close()
	}
	return nil
}
