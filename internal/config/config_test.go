// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
slave_address: 17
serial:
  device: /dev/ttyUSB0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SlaveAddress != 17 {
		t.Fatalf("SlaveAddress = %d, want 17", cfg.SlaveAddress)
	}
	if cfg.TimingProfile != "standard" {
		t.Fatalf("TimingProfile = %q, want standard", cfg.TimingProfile)
	}
	if cfg.Serial.BaudRate != 19200 || cfg.Serial.Parity != "N" {
		t.Fatalf("serial defaults not applied: %+v", cfg.Serial)
	}
	if cfg.ADC.Channels != 8 {
		t.Fatalf("ADC.Channels = %d, want 8", cfg.ADC.Channels)
	}
	if cfg.ADC.SampleInterval != 100*time.Millisecond {
		t.Fatalf("ADC.SampleInterval = %v, want 100ms", cfg.ADC.SampleInterval)
	}
}

func TestLoadConfigUppercasesParity(t *testing.T) {
	path := writeConfig(t, `
serial:
  parity: e
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Serial.Parity != "E" {
		t.Fatalf("Parity = %q, want E", cfg.Serial.Parity)
	}
}

func TestLoadConfigRejectsUnknownTimingProfile(t *testing.T) {
	path := writeConfig(t, "timing_profile: warp9\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for an unknown timing_profile")
	}
}

func TestLoadConfigRequiresPathForMmapStorage(t *testing.T) {
	path := writeConfig(t, `
adc:
  storage:
    type: mmap
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error when adc.storage.type is mmap with no path")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
