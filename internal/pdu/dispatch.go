// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package pdu

import (
	"encoding/binary"

	"github.com/go-modbus-rtu/slave/modbus"
	"github.com/go-modbus-rtu/slave/modbus/rtu"
)

const (
	minReadQuantity   = 1
	maxCoilQuantity   = 0x07B0
	maxRegQuantity    = 0x007D
	maxWriteRegCount  = 0x07B // per §4.5's WriteMultipleRegisters bound, distinct from the read bound
	coilOn            = 0xFF00
	coilOff           = 0x0000
)

// HandleIndication is the §4.5 entry point: handleIndication(indication,
// reply). indication and reply may alias the same storage — reply is
// typically the very same *rtu.Message the daemon used to receive the
// frame, overwritten in place.
//
// Step 1 drops frames addressed to neither slaveAddress nor the
// broadcast address (0) before the handler is consulted at all — per
// Testable Properties §8 scenario 6, a wrong-address frame must not
// trigger handler side effects. A broadcast (addr==0) is dispatched
// for its side effects like any other frame, but the reply is
// suppressed at the end (§7 taxonomy item 3).
func HandleIndication(h Handler, slaveAddress byte, indication *rtu.Message, reply *rtu.Message) {
	addr := indication.Address()
	if addr != slaveAddress && addr != modbus.BroadcastAddress {
		reply.Clear()
		return
	}

	fc := indication.FunctionCode()
	body := indication.Bytes()
	data := body[2 : len(body)-2] // strip addr, func, and the CRC the daemon already validated

	out, ex := dispatch(h, fc, data)

	if addr == modbus.BroadcastAddress {
		reply.Clear()
		return
	}

	var pdu modbus.ProtocolDataUnit
	if ex != 0 {
		pdu = modbus.Exception(fc, ex)
	} else {
		out.FunctionCode = fc
		pdu = out
	}
	reply.SetReply(addr, pdu)
	reply.AppendCRC()
}

func dispatch(h Handler, fc modbus.FunctionCode, data []byte) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	switch fc {
	case modbus.FuncCodeReadCoils:
		return handleReadBits(data, h.IsReadCoilsSupported(), h.IsReadCoilsValidDataAddress, h.ReadSingleCoil)
	case modbus.FuncCodeReadDiscreteInputs:
		return handleReadBits(data, h.IsReadDiscreteInputsSupported(), h.IsReadDiscreteInputsValidDataAddress, h.ReadSingleDiscreteInput)
	case modbus.FuncCodeReadHoldingRegisters:
		return handleReadRegisters(data, h.IsReadHoldingRegistersSupported(), h.IsReadHoldingRegistersValidDataAddress, h.ReadSingleHoldingRegister)
	case modbus.FuncCodeReadInputRegisters:
		return handleReadRegisters(data, h.IsReadInputRegistersSupported(), h.IsReadInputRegistersValidDataAddress, h.ReadSingleInputRegister)
	case modbus.FuncCodeWriteSingleCoil:
		return handleWriteSingleCoil(h, data)
	case modbus.FuncCodeWriteSingleRegister:
		return handleWriteSingleRegister(h, data)
	case modbus.FuncCodeWriteMultipleCoils:
		return handleWriteMultipleCoils(h, data)
	case modbus.FuncCodeWriteMultipleRegisters:
		return handleWriteMultipleRegisters(h, data)
	default:
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
}

func handleReadBits(
	data []byte,
	supported bool,
	validAddr func(address, quantity uint16) bool,
	readOne func(address uint16) (bool, bool),
) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	if !supported {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
	if len(data) != 4 {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	if !validAddr(address, quantity) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataAddress
	}
	if quantity < minReadQuantity || quantity > maxCoilQuantity {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}

	byteCount := (int(quantity) + 7) / 8
	payload := make([]byte, 1+byteCount)
	payload[0] = byte(byteCount)
	for i := 0; i < int(quantity); i++ {
		v, ok := readOne(address + uint16(i))
		if !ok {
			return modbus.ProtocolDataUnit{}, modbus.ExceptionServerDeviceFailure
		}
		if v {
			payload[1+i/8] |= 1 << uint(i%8)
		}
	}
	return modbus.ProtocolDataUnit{FunctionCode: 0, Data: payload}, 0
}

func handleReadRegisters(
	data []byte,
	supported bool,
	validAddr func(address, quantity uint16) bool,
	readOne func(address uint16) (uint16, bool),
) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	if !supported {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
	if len(data) != 4 {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	if !validAddr(address, quantity) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataAddress
	}
	if quantity < minReadQuantity || quantity > maxRegQuantity {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}

	payload := make([]byte, 1+2*int(quantity))
	payload[0] = byte(2 * quantity)
	for i := 0; i < int(quantity); i++ {
		v, ok := readOne(address + uint16(i))
		if !ok {
			return modbus.ProtocolDataUnit{}, modbus.ExceptionServerDeviceFailure
		}
		binary.BigEndian.PutUint16(payload[1+2*i:], v)
	}
	return modbus.ProtocolDataUnit{FunctionCode: 0, Data: payload}, 0
}

func handleWriteSingleCoil(h Handler, data []byte) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	if !h.IsWriteSingleCoilSupported() {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
	if len(data) != 4 {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])
	if !h.IsWriteSingleCoilValidDataAddress(address) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataAddress
	}
	if value != coilOn && value != coilOff {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	if !h.WriteSingleCoil(address, value == coilOn) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionServerDeviceFailure
	}
	return modbus.ProtocolDataUnit{FunctionCode: 0, Data: append([]byte(nil), data[:4]...)}, 0
}

func handleWriteSingleRegister(h Handler, data []byte) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	// Validity and execution delegate to WriteMultipleRegisters with
	// regCount=1, per §4.5.
	if !h.IsWriteMultipleRegistersSupported() {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
	if len(data) != 4 {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])
	if !h.IsWriteMultipleRegistersValidDataAddress(address, 1) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataAddress
	}
	if !h.WriteRegisters(address, []uint16{value}) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionServerDeviceFailure
	}
	return modbus.ProtocolDataUnit{FunctionCode: 0, Data: append([]byte(nil), data[:4]...)}, 0
}

func handleWriteMultipleCoils(h Handler, data []byte) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	if !h.IsWriteMultipleCoilsSupported() {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
	if len(data) < 6 {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	byteCount := data[4]
	payload := data[5:]
	if !h.IsWriteMultipleCoilsValidDataAddress(address, quantity) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataAddress
	}
	expected := (int(quantity) + 7) / 8
	if quantity < minReadQuantity || quantity > maxCoilQuantity || int(byteCount) != expected || len(payload) != expected {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	for i := 0; i < int(quantity); i++ {
		bit := (payload[i/8] >> uint(i%8)) & 1
		if !h.WriteSingleCoil(address+uint16(i), bit == 1) {
			return modbus.ProtocolDataUnit{}, modbus.ExceptionServerDeviceFailure
		}
	}
	return modbus.ProtocolDataUnit{FunctionCode: 0, Data: append([]byte(nil), data[:6]...)}, 0
}

func handleWriteMultipleRegisters(h Handler, data []byte) (modbus.ProtocolDataUnit, modbus.ExceptionCode) {
	if !h.IsWriteMultipleRegistersSupported() {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalFunction
	}
	if len(data) < 6 {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	quantity := binary.BigEndian.Uint16(data[2:4])
	byteCount := data[4]
	payload := data[5:]
	if !h.IsWriteMultipleRegistersValidDataAddress(address, quantity) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataAddress
	}
	if quantity < minReadQuantity || quantity > maxWriteRegCount || int(byteCount) != 2*int(quantity) || len(payload) != 2*int(quantity) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionIllegalDataValue
	}
	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(payload[2*i:])
	}
	if !h.WriteRegisters(address, values) {
		return modbus.ProtocolDataUnit{}, modbus.ExceptionServerDeviceFailure
	}
	return modbus.ProtocolDataUnit{FunctionCode: 0, Data: append([]byte(nil), data[:6]...)}, 0
}
