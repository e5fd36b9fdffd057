// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package der implements a minimal ASN.1 DER reader: tag/length/value header
// parsing, object identifier decoding and a cursor for walking nested
// structures. Payloads are always sub-slices of the input, nothing is copied.
package der

import (
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// Class is the ASN.1 tag class taken from the top two identifier bits.
type Class uint8

const (
	ClassUniversal   Class = 0
	ClassApplication Class = 1
	ClassContext     Class = 2
	ClassPrivate     Class = 3
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "universal"
	case ClassApplication:
		return "application"
	case ClassContext:
		return "context"
	case ClassPrivate:
		return "private"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Universal tags used by the key importer.
const (
	TagInteger     = 0x02
	TagBitString   = 0x03
	TagOctetString = 0x04
	TagNull        = 0x05
	TagOID         = 0x06
	TagSequence    = 0x10
	TagSet         = 0x11
)

// maxLengthOctets is the longest long-form length field accepted.
const maxLengthOctets = 4

// Header is a parsed TLV header together with its payload window.
type Header struct {
	Identifier  byte   // Raw identifier octet
	Class       Class  // Tag class
	Constructed bool   // Whether the payload holds nested encodings
	Tag         uint32 // Tag number, high-tag form already decoded
	Length      int    // Payload length in bytes
	Payload     []byte // Payload bytes, aliasing the parsed buffer
}

// Is reports whether the header carries the given class and tag.
func (h Header) Is(class Class, tag uint32) bool {
	return h.Class == class && h.Tag == tag
}

// ReadHeader parses the TLV header at the start of buf and returns it along
// with the total number of bytes the element spans (header and payload).
func ReadHeader(buf []byte) (Header, int, error) {
	var h Header
	if len(buf) == 0 {
		return h, 0, fmt.Errorf("%w: der: empty buffer", errs.ErrMalformedEncoding)
	}
	h.Identifier = buf[0]
	h.Class = Class(buf[0] >> 6)
	h.Constructed = buf[0]&0x20 != 0

	pos := 1
	if buf[0]&0x1f == 0x1f {
		// High tag number form, base-128 with continuation bits
		var tag uint64
		for {
			if pos >= len(buf) {
				return h, 0, fmt.Errorf("%w: der: identifier underflow", errs.ErrMalformedEncoding)
			}
			b := buf[pos]
			pos++

			tag = tag<<7 | uint64(b&0x7f)
			if tag > 1<<32-1 {
				return h, 0, fmt.Errorf("%w: der: tag number too large", errs.ErrMalformedEncoding)
			}
			if b&0x80 == 0 {
				break
			}
		}
		h.Tag = uint32(tag)
	} else {
		h.Tag = uint32(buf[0] & 0x1f)
	}
	if pos >= len(buf) {
		return h, 0, fmt.Errorf("%w: der: length underflow", errs.ErrMalformedEncoding)
	}
	b := buf[pos]
	pos++

	var length uint64
	switch {
	case b&0x80 == 0:
		length = uint64(b)
	case b == 0xff:
		return h, 0, fmt.Errorf("%w: der: reserved length value 0xff", errs.ErrMalformedEncoding)
	default:
		n := int(b & 0x7f)
		if n > maxLengthOctets {
			return h, 0, fmt.Errorf("%w: der: length field too long (%d octets)", errs.ErrMalformedEncoding, n)
		}
		if pos+n > len(buf) {
			return h, 0, fmt.Errorf("%w: der: length underflow", errs.ErrMalformedEncoding)
		}
		for _, c := range buf[pos : pos+n] {
			length = length<<8 | uint64(c)
		}
		pos += n
	}
	if length > uint64(len(buf)-pos) {
		return h, 0, fmt.Errorf("%w: der: contents underflow (need %d bytes, have %d)", errs.ErrMalformedEncoding, length, len(buf)-pos)
	}
	h.Length = int(length)
	h.Payload = buf[pos : pos+h.Length : pos+h.Length]
	return h, pos + h.Length, nil
}
