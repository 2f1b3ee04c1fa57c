// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package adcsim

import "github.com/go-modbus-rtu/slave/internal/pdu"

// Handler exposes a Sampler's channels as Modbus registers. It embeds
// pdu.UnimplementedHandler and implements only the read-holding- and
// read-input-registers families — an ADC has nothing to write. The
// holding-registers hooks are the primary contract: the original
// RtuHandler this is modeled on binds adc.read(...).value_or(0xFFFF)
// to is_read_registers_supported/execute_read_single_register, which
// the PDU dispatch table routes from ReadHoldingRegisters (0x03), not
// ReadInputRegisters (0x04). The input-registers hooks are kept
// alongside it as the spec's optional read-only alternate.
type Handler struct {
	pdu.UnimplementedHandler
	sampler *Sampler
}

func NewHandler(sampler *Sampler) *Handler {
	return &Handler{sampler: sampler}
}

func (h *Handler) IsReadHoldingRegistersSupported() bool { return true }

// IsReadHoldingRegistersValidDataAddress always reports true: an
// out-of-range channel is not a protocol error here, it falls back to
// 0xFFFF per ReadSingleHoldingRegister's contract below.
func (h *Handler) IsReadHoldingRegistersValidDataAddress(address, quantity uint16) bool {
	return true
}

// ReadSingleHoldingRegister is adc.read(AdcInput(address)).value_or(0xFFFF):
// channels within range return the latest sample, anything else reads
// back as 0xFFFF. It never fails, since there is no meaningful "device
// failure" for a channel that simply doesn't exist.
func (h *Handler) ReadSingleHoldingRegister(address uint16) (uint16, bool) {
	return h.readChannelOrFallback(address)
}

func (h *Handler) IsReadInputRegistersSupported() bool { return true }

// IsReadInputRegistersValidDataAddress always reports true, for the
// same reason as IsReadHoldingRegistersValidDataAddress above.
func (h *Handler) IsReadInputRegistersValidDataAddress(address, quantity uint16) bool {
	return true
}

// ReadSingleInputRegister mirrors ReadSingleHoldingRegister's
// fallback contract over the same channel table.
func (h *Handler) ReadSingleInputRegister(address uint16) (uint16, bool) {
	return h.readChannelOrFallback(address)
}

func (h *Handler) readChannelOrFallback(address uint16) (uint16, bool) {
	if v, ok := h.sampler.readChannel(int(address)); ok {
		return v, true
	}
	return 0xFFFF, true
}

var _ pdu.Handler = (*Handler)(nil)
