// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"github.com/go-modbus-rtu/slave/modbus"
	"github.com/go-modbus-rtu/slave/modbus/crc"
)

// Message is a fixed-capacity RTU frame buffer: [addr][func][payload…][crcLo][crcHi].
// It never allocates — the daemon owns one Message for its whole
// lifetime and reuses it for both the received indication and the
// reply written in its place.
type Message struct {
	buf [MaxSize]byte
	len int
}

// Reset empties the message without touching the backing array.
func (m *Message) Reset() {
	m.len = 0
}

// Len reports the number of valid bytes currently in the buffer.
func (m *Message) Len() int {
	return m.len
}

// Full reports whether the buffer has reached MaxSize and can accept
// no further bytes.
func (m *Message) Full() bool {
	return m.len >= MaxSize
}

// AppendByte appends one byte, reporting false (and doing nothing) if
// the buffer is already full.
func (m *Message) AppendByte(b byte) bool {
	if m.Full() {
		return false
	}
	m.buf[m.len] = b
	m.len++
	return true
}

// Bytes returns the valid prefix of the buffer. The returned slice
// aliases the Message's internal storage and is invalidated by the
// next mutation.
func (m *Message) Bytes() []byte {
	return m.buf[:m.len]
}

// Address returns buf[0], the slave address. Only meaningful once
// Len() >= 1.
func (m *Message) Address() byte {
	return m.buf[0]
}

// FunctionCode returns buf[1]. Only meaningful once Len() >= 2.
func (m *Message) FunctionCode() modbus.FunctionCode {
	return modbus.FunctionCode(m.buf[1])
}

// ValidCRC reports whether the trailing two bytes match the CRC-16 of
// everything preceding them. The message must have Len() >= MinSize.
func (m *Message) ValidCRC() bool {
	if m.len < MinSize {
		return false
	}
	body := m.buf[:m.len-2]
	got := uint16(m.buf[m.len-2]) | uint16(m.buf[m.len-1])<<8
	return crc.Checksum(body) == got
}

// SetReply overwrites the buffer in place with addr, func and data,
// aliasing the same storage the indication occupied. It does not
// append the CRC; call AppendCRC for that.
func (m *Message) SetReply(addr byte, pdu modbus.ProtocolDataUnit) {
	m.len = 0
	m.buf[0] = addr
	m.buf[1] = byte(pdu.FunctionCode)
	m.len = 2
	for _, b := range pdu.Data {
		m.AppendByte(b)
	}
}

// AppendCRC computes the CRC-16 over the current contents and appends
// it little-endian, per §6: CRC over addr..end-of-payload.
func (m *Message) AppendCRC() {
	sum := crc.Checksum(m.buf[:m.len])
	m.AppendByte(byte(sum))
	m.AppendByte(byte(sum >> 8))
}

// Clear marks the message empty and suitable for reuse as a reply with
// length 0 — the "no transmission required" contract of §6.
func (m *Message) Clear() {
	m.len = 0
}
