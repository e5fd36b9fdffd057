// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/bignum"
	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// Reader walks a sequence of DER elements laid out back to back, such as the
// payload of a SEQUENCE.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a reader around a data blob.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Empty reports whether all elements have been consumed.
func (r *Reader) Empty() bool {
	return r.pos >= len(r.data)
}

// Finish terminates reading and returns an error if trailing bytes remain.
func (r *Reader) Finish() error {
	if r.pos != len(r.data) {
		return fmt.Errorf("%w: der: %d trailing bytes", errs.ErrMalformedEncoding, len(r.data)-r.pos)
	}
	return nil
}

// Next parses the next element header and advances past its payload.
func (r *Reader) Next() (Header, error) {
	h, n, err := ReadHeader(r.data[r.pos:])
	if err != nil {
		return h, err
	}
	r.pos += n
	return h, nil
}

// Expect reads the next element and checks that it carries the given class
// and tag.
func (r *Reader) Expect(class Class, tag uint32) (Header, error) {
	h, err := r.Next()
	if err != nil {
		return h, err
	}
	if !h.Is(class, tag) {
		return h, fmt.Errorf("%w: der: unexpected %s tag %d, want %s tag %d", errs.ErrMalformedEncoding, h.Class, h.Tag, class, tag)
	}
	return h, nil
}

// ReadSequence reads a SEQUENCE and returns a reader over its contents.
func (r *Reader) ReadSequence() (*Reader, error) {
	h, err := r.Expect(ClassUniversal, TagSequence)
	if err != nil {
		return nil, err
	}
	return NewReader(h.Payload), nil
}

// ReadInteger reads an INTEGER as an unsigned big-endian magnitude.
func (r *Reader) ReadInteger() (*bignum.Int, error) {
	h, err := r.Expect(ClassUniversal, TagInteger)
	if err != nil {
		return nil, err
	}
	if h.Length == 0 {
		return nil, fmt.Errorf("%w: der: empty integer", errs.ErrMalformedEncoding)
	}
	return bignum.FromBytes(h.Payload), nil
}

// ReadOID reads an OBJECT IDENTIFIER.
func (r *Reader) ReadOID() (OID, error) {
	h, err := r.Expect(ClassUniversal, TagOID)
	if err != nil {
		return nil, err
	}
	return ParseOID(h.Payload)
}

// ReadOctetString reads an OCTET STRING and returns its payload.
func (r *Reader) ReadOctetString() ([]byte, error) {
	h, err := r.Expect(ClassUniversal, TagOctetString)
	if err != nil {
		return nil, err
	}
	return h.Payload, nil
}
