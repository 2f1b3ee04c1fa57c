// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package modbus holds the wire-level vocabulary shared by every layer of
// the RTU slave engine: function codes, exception codes and the
// Protocol Data Unit the framing layer hands to the dispatcher.
package modbus

import "fmt"

// FunctionCode identifies one of the eight function codes this slave
// implements. Any other value dispatches to ExceptionIllegalFunction.
type FunctionCode byte

const (
	FuncCodeReadCoils              FunctionCode = 0x01
	FuncCodeReadDiscreteInputs     FunctionCode = 0x02
	FuncCodeReadHoldingRegisters   FunctionCode = 0x03
	FuncCodeReadInputRegisters     FunctionCode = 0x04
	FuncCodeWriteSingleCoil        FunctionCode = 0x05
	FuncCodeWriteSingleRegister    FunctionCode = 0x06
	FuncCodeWriteMultipleCoils     FunctionCode = 0x0F
	FuncCodeWriteMultipleRegisters FunctionCode = 0x10
)

// exceptionBit is OR'd into the request function code to mark a reply
// as an exception response.
const exceptionBit FunctionCode = 0x80

// WithException returns the function code as it appears in an
// exception reply (top bit set).
func (f FunctionCode) WithException() FunctionCode {
	return f | exceptionBit
}

// IsException reports whether f carries the exception bit, i.e. this
// value was read from a reply rather than a request.
func (f FunctionCode) IsException() bool {
	return f&exceptionBit != 0
}

// Base strips the exception bit, recovering the request function code
// that produced an exception reply.
func (f FunctionCode) Base() FunctionCode {
	return f &^ exceptionBit
}

func (f FunctionCode) String() string {
	switch f.Base() {
	case FuncCodeReadCoils:
		return "ReadCoils"
	case FuncCodeReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case FuncCodeReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case FuncCodeReadInputRegisters:
		return "ReadInputRegisters"
	case FuncCodeWriteSingleCoil:
		return "WriteSingleCoil"
	case FuncCodeWriteSingleRegister:
		return "WriteSingleRegister"
	case FuncCodeWriteMultipleCoils:
		return "WriteMultipleCoils"
	case FuncCodeWriteMultipleRegisters:
		return "WriteMultipleRegisters"
	default:
		return fmt.Sprintf("FunctionCode(0x%02X)", byte(f))
	}
}

// ExceptionCode is one of the four Modbus exception codes this slave
// can return.
type ExceptionCode byte

const (
	ExceptionIllegalFunction     ExceptionCode = 0x01
	ExceptionIllegalDataAddress  ExceptionCode = 0x02
	ExceptionIllegalDataValue    ExceptionCode = 0x03
	ExceptionServerDeviceFailure ExceptionCode = 0x04
)

func (e ExceptionCode) Error() string {
	switch e {
	case ExceptionIllegalFunction:
		return "modbus: illegal function"
	case ExceptionIllegalDataAddress:
		return "modbus: illegal data address"
	case ExceptionIllegalDataValue:
		return "modbus: illegal data value"
	case ExceptionServerDeviceFailure:
		return "modbus: server device failure"
	default:
		return fmt.Sprintf("modbus: exception 0x%02X", byte(e))
	}
}

// BroadcastAddress is the slave address reserved for broadcast
// requests: processed for side effects, never replied to.
const BroadcastAddress = 0

// ProtocolDataUnit is the function-code/data pair carried inside an
// RTU frame, with the slave address and CRC stripped.
type ProtocolDataUnit struct {
	FunctionCode FunctionCode
	Data         []byte
}

// Exception builds the PDU for an exception reply to req.
func Exception(req FunctionCode, code ExceptionCode) ProtocolDataUnit {
	return ProtocolDataUnit{
		FunctionCode: req.WithException(),
		Data:         []byte{byte(code)},
	}
}
