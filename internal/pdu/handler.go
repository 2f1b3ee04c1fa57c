// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package pdu implements the generic PDU handler framework (§4.5): a
// dispatcher that validates and executes the eight implemented
// Modbus function codes against a user-supplied Handler, using static
// (interface-method) dispatch rather than a big switch of callbacks.
//
// A concrete handler embeds UnimplementedHandler and overrides only
// the function families it supports; UnimplementedHandler supplies
// the spec's defaults — supported → false, address-valid → true, so
// that overriding "supported" alone without an address check is a
// safe default-deny (§6).
package pdu

// Handler is the application hook surface §6 names: one capability
// predicate, one address validator and one execution hook per
// function family implemented by this slave. WriteMultipleCoils has
// no execution hook of its own: it calls WriteSingleCoil once per bit.
// WriteSingleRegister has no hooks of its own: it uses the
// WriteMultipleRegisters set with a quantity of 1.
type Handler interface {
	IsReadCoilsSupported() bool
	IsReadCoilsValidDataAddress(address, quantity uint16) bool
	ReadSingleCoil(address uint16) (value, ok bool)

	IsReadDiscreteInputsSupported() bool
	IsReadDiscreteInputsValidDataAddress(address, quantity uint16) bool
	ReadSingleDiscreteInput(address uint16) (value, ok bool)

	IsReadHoldingRegistersSupported() bool
	IsReadHoldingRegistersValidDataAddress(address, quantity uint16) bool
	ReadSingleHoldingRegister(address uint16) (value uint16, ok bool)

	IsReadInputRegistersSupported() bool
	IsReadInputRegistersValidDataAddress(address, quantity uint16) bool
	ReadSingleInputRegister(address uint16) (value uint16, ok bool)

	IsWriteSingleCoilSupported() bool
	IsWriteSingleCoilValidDataAddress(address uint16) bool
	WriteSingleCoil(address uint16, value bool) (ok bool)

	IsWriteMultipleCoilsSupported() bool
	IsWriteMultipleCoilsValidDataAddress(address, quantity uint16) bool

	IsWriteMultipleRegistersSupported() bool
	IsWriteMultipleRegistersValidDataAddress(address, quantity uint16) bool
	WriteRegisters(address uint16, values []uint16) (ok bool)
}

// UnimplementedHandler supplies the framework's defaults for every
// hook: unsupported, and (irrelevantly, since support is the gate)
// address-always-valid. Embed it in a concrete handler and override
// only the methods for function families actually implemented.
type UnimplementedHandler struct{}

func (UnimplementedHandler) IsReadCoilsSupported() bool                                { return false }
func (UnimplementedHandler) IsReadCoilsValidDataAddress(address, quantity uint16) bool  { return true }
func (UnimplementedHandler) ReadSingleCoil(address uint16) (value, ok bool)             { return false, false }
func (UnimplementedHandler) IsReadDiscreteInputsSupported() bool                        { return false }
func (UnimplementedHandler) IsReadDiscreteInputsValidDataAddress(a, q uint16) bool      { return true }
func (UnimplementedHandler) ReadSingleDiscreteInput(address uint16) (value, ok bool)    { return false, false }
func (UnimplementedHandler) IsReadHoldingRegistersSupported() bool                      { return false }
func (UnimplementedHandler) IsReadHoldingRegistersValidDataAddress(a, q uint16) bool    { return true }
func (UnimplementedHandler) ReadSingleHoldingRegister(address uint16) (uint16, bool)    { return 0, false }
func (UnimplementedHandler) IsReadInputRegistersSupported() bool                        { return false }
func (UnimplementedHandler) IsReadInputRegistersValidDataAddress(a, q uint16) bool      { return true }
func (UnimplementedHandler) ReadSingleInputRegister(address uint16) (uint16, bool)      { return 0, false }
func (UnimplementedHandler) IsWriteSingleCoilSupported() bool                           { return false }
func (UnimplementedHandler) IsWriteSingleCoilValidDataAddress(address uint16) bool      { return true }
func (UnimplementedHandler) WriteSingleCoil(address uint16, value bool) bool            { return false }
func (UnimplementedHandler) IsWriteMultipleCoilsSupported() bool                        { return false }
func (UnimplementedHandler) IsWriteMultipleCoilsValidDataAddress(a, q uint16) bool      { return true }
func (UnimplementedHandler) IsWriteMultipleRegistersSupported() bool                    { return false }
func (UnimplementedHandler) IsWriteMultipleRegistersValidDataAddress(a, q uint16) bool  { return true }
func (UnimplementedHandler) WriteRegisters(address uint16, values []uint16) bool        { return false }

var _ Handler = UnimplementedHandler{}
