// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package adcsim

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSawtoothWaveformIsDeterministic(t *testing.T) {
	a := SawtoothWaveform(2, 10)
	b := SawtoothWaveform(2, 10)
	if a != b {
		t.Fatalf("SawtoothWaveform not deterministic: %d != %d", a, b)
	}
	if SawtoothWaveform(0, 10) == SawtoothWaveform(1, 10) {
		t.Fatalf("distinct channels should not collide at the same tick in this fixture")
	}
}

func TestSamplerSampleOnceAdvancesAllChannels(t *testing.T) {
	s, err := NewSampler(3, time.Millisecond, nil, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	s.sampleOnce()

	for c := 0; c < 3; c++ {
		v, ok := s.readChannel(c)
		if !ok {
			t.Fatalf("channel %d: readChannel not ok", c)
		}
		if want := SawtoothWaveform(c, 1); v != want {
			t.Fatalf("channel %d = %d, want %d", c, v, want)
		}
	}
}

func TestHandlerReadsInRangeAndFallsBackOutOfRange(t *testing.T) {
	s, err := NewSampler(2, time.Millisecond, nil, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	s.sampleOnce()
	h := NewHandler(s)

	if !h.IsReadInputRegistersSupported() {
		t.Fatal("IsReadInputRegistersSupported() = false, want true")
	}

	v, ok := h.ReadSingleInputRegister(0)
	if !ok || v != SawtoothWaveform(0, 1) {
		t.Fatalf("channel 0 = (%d, %v), want (%d, true)", v, ok, SawtoothWaveform(0, 1))
	}

	v, ok = h.ReadSingleInputRegister(99)
	if !ok || v != 0xFFFF {
		t.Fatalf("out-of-range channel = (%d, %v), want (0xFFFF, true)", v, ok)
	}
}

func TestHandlerReadsHoldingRegistersSameChannelTable(t *testing.T) {
	s, err := NewSampler(2, time.Millisecond, nil, nil)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	s.sampleOnce()
	h := NewHandler(s)

	if !h.IsReadHoldingRegistersSupported() {
		t.Fatal("IsReadHoldingRegistersSupported() = false, want true")
	}

	v, ok := h.ReadSingleHoldingRegister(0)
	if !ok || v != SawtoothWaveform(0, 1) {
		t.Fatalf("channel 0 = (%d, %v), want (%d, true)", v, ok, SawtoothWaveform(0, 1))
	}

	v, ok = h.ReadSingleHoldingRegister(99)
	if !ok || v != 0xFFFF {
		t.Fatalf("out-of-range channel = (%d, %v), want (0xFFFF, true)", v, ok)
	}
}

func TestMmapStorageRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registers.dat")

	store := NewMmapStorage(path, 4)
	values, err := store.Load(4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, v := range values {
		if v != 0 {
			t.Fatalf("fresh mmap file should start zeroed, got %d", v)
		}
	}

	values[1] = 0xBEEF
	if err := store.Snapshot(values); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := NewMmapStorage(path, 4)
	reloaded, err := reopened.Load(4)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer reopened.Close()

	if reloaded[1] != 0xBEEF {
		t.Fatalf("reloaded[1] = %#x, want 0xBEEF", reloaded[1])
	}
}

func TestMemoryStorageDoesNotPersist(t *testing.T) {
	store := NewMemoryStorage()
	values, _ := store.Load(2)
	values[0] = 42
	_ = store.Snapshot(values)

	reloaded, _ := store.Load(2)
	if reloaded[0] != 0 {
		t.Fatalf("MemoryStorage must not persist, got %d", reloaded[0])
	}
}
