// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	tlserrors "github.com/nullmacro/tls12hs/errors"
)

// Extensions is an ordered, uniqueness-enforcing collection of extension
// carriers. It exclusively owns its entries: Take transfers ownership out
// and removes the entry, as Botan's Extensions::take does.
type Extensions struct {
	order []uint16
	byCode map[uint16]Extension
}

// NewExtensions returns an empty Extensions container.
func NewExtensions() *Extensions {
	return &Extensions{byCode: make(map[uint16]Extension)}
}

// Add inserts extn. Insertion order is serialization order. Adding a code
// already present fails with InvalidArgument.
func (ex *Extensions) Add(extn Extension) error {
	code := extn.Code()
	if _, ok := ex.byCode[code]; ok {
		return tlserrors.InvalidArgumentf("extensions: cannot add the same extension twice: %d", code)
	}
	if ex.byCode == nil {
		ex.byCode = make(map[uint16]Extension)
	}
	ex.byCode[code] = extn
	ex.order = append(ex.order, code)
	return nil
}

// Has reports whether code is present.
func (ex *Extensions) Has(code uint16) bool {
	_, ok := ex.byCode[code]
	return ok
}

// Get returns the extension for code, if present.
func (ex *Extensions) Get(code uint16) (Extension, bool) {
	e, ok := ex.byCode[code]
	return e, ok
}

// Take removes and returns the extension for code, transferring ownership
// to the caller.
func (ex *Extensions) Take(code uint16) (Extension, bool) {
	e, ok := ex.byCode[code]
	if !ok {
		return nil, false
	}
	delete(ex.byCode, code)
	for i, c := range ex.order {
		if c == code {
			ex.order = append(ex.order[:i], ex.order[i+1:]...)
			break
		}
	}
	return e, true
}

// Types returns the extension codes present, in insertion (serialization)
// order.
// Per the round-trip invariant there are never duplicates.
func (ex *Extensions) Types() []uint16 {
	out := make([]uint16, 0, len(ex.order))
	out = append(out, ex.order...)
	return out
}

// Len returns the number of extensions present.
func (ex *Extensions) Len() int { return len(ex.order) }

// DeserializeExtensions reads the outer 2-byte total size, then (code, size,
// payload) triples until the frame is exhausted, dispatching each triple
// through ExtensionFromCode. Each extension's payload is first sliced into
// its own bounded Reader of exactly size bytes, and the decoder is required
// to consume every one of them: a carrier that reads less or more than its
// declared size is a fatal decode error, never a desynchronized cursor for
// the extensions that follow it. A duplicate code is a fatal decode error
// with alert DECODE_ERROR. If r has no remaining bytes at all, an empty,
// zero-extension container is returned (there was no extensions block on
// the wire).
func DeserializeExtensions(r *Reader, side Side, msgType MessageType) (*Extensions, error) {
	ex := NewExtensions()
	if !r.HasRemaining() {
		return ex, nil
	}
	block, err := r.GetRange(2, 1, 0, -1)
	if err != nil {
		return nil, err
	}
	br := NewReader(block)
	for br.HasRemaining() {
		code, err := br.GetUint16()
		if err != nil {
			return nil, err
		}
		size, err := br.GetUint16()
		if err != nil {
			return nil, err
		}
		if ex.Has(code) {
			return nil, tlserrors.DecodeErrorf("extensions: peer sent duplicated extension %d", code)
		}
		body, err := br.GetFixed(int(size))
		if err != nil {
			return nil, err
		}
		sub := NewReader(body)
		extn, err := ExtensionFromCode(code, sub, int(size), side, msgType)
		if err != nil {
			return nil, err
		}
		if err := sub.RequireEmpty(); err != nil {
			return nil, tlserrors.DecodeErrorf("extensions: extension %d declared size %d but decoder left %d bytes unconsumed", code, size, sub.Remaining())
		}
		if err := ex.Add(extn); err != nil {
			return nil, err
		}
	}
	return ex, nil
}

// Serialize writes the outer length prefix followed by each non-empty
// extension's (code, payload_len, payload). Extensions whose carrier
// declares itself an empty marker are written with payload_len=0 even
// though their payload is empty; extensions with an incidentally empty,
// non-marker payload are elided entirely. If the resulting block body is
// empty, Serialize returns an empty byte sequence rather than a block with
// length 0 — there is no extensions block at all.
func (ex *Extensions) Serialize(side Side) ([]byte, error) {
	w := NewWriter()
	wrote := false
	for _, code := range ex.order {
		extn := ex.byCode[code]
		payload, err := extn.Payload(side)
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 && !extn.IsEmptyMarker() {
			continue
		}
		w.AppendU16(code)
		if err := w.AppendLengthValue(payload, 2); err != nil {
			return nil, err
		}
		wrote = true
	}
	if !wrote {
		w.Release()
		return nil, nil
	}
	body, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	outer := NewWriter()
	if err := outer.AppendLengthValue(body, 2); err != nil {
		return nil, err
	}
	return outer.Bytes()
}
