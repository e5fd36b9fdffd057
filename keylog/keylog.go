// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keylog reads and writes the binary capture of session secrets
// recorded next to a packet trace. Each entry is laid out as:
//
//	timestamp  float64, little endian IEEE-754
//	length     int32, little endian, 0..256
//	premaster  length bytes
//	master     48 bytes
package keylog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/dark-bio/tlsdecrypt-go/prf"
)

// MaxPreMasterSize is the largest pre-master secret an entry may carry.
const MaxPreMasterSize = 256

// Entry is one captured pair of session secrets.
type Entry struct {
	Timestamp float64
	PreMaster []byte
	Master    [prf.MasterSecretSize]byte
}

// Reader decodes entries sequentially from a stream.
type Reader struct {
	r     *bufio.Reader
	count int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next decodes the next entry. It returns io.EOF when the stream ends
// cleanly between entries.
func (r *Reader) Next() (*Entry, error) {
	var head [12]byte
	if _, err := io.ReadFull(r.r, head[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, r.truncated(err)
	}
	entry := &Entry{
		Timestamp: math.Float64frombits(binary.LittleEndian.Uint64(head[:8])),
	}
	size := int32(binary.LittleEndian.Uint32(head[8:]))
	if size < 0 || size > MaxPreMasterSize {
		return nil, fmt.Errorf("%w: keylog: entry %d: pre-master length %d out of range", errs.ErrMalformedEncoding, r.count, size)
	}
	entry.PreMaster = make([]byte, size)
	if _, err := io.ReadFull(r.r, entry.PreMaster); err != nil {
		return nil, r.truncated(err)
	}
	if _, err := io.ReadFull(r.r, entry.Master[:]); err != nil {
		return nil, r.truncated(err)
	}
	r.count++
	return entry, nil
}

// truncated converts a short read into a malformed entry error, passing other
// I/O errors through.
func (r *Reader) truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: keylog: entry %d truncated", errs.ErrMalformedEncoding, r.count)
	}
	return err
}

// ReadAll decodes every entry of a stream.
func ReadAll(r io.Reader) ([]*Entry, error) {
	var (
		reader  = NewReader(r)
		entries []*Entry
	)
	for {
		entry, err := reader.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}

// Write encodes one entry.
func Write(w io.Writer, entry *Entry) error {
	if len(entry.PreMaster) > MaxPreMasterSize {
		return fmt.Errorf("%w: keylog: pre-master of %d bytes too long", errs.ErrArithmeticOverflow, len(entry.PreMaster))
	}
	buf := make([]byte, 12, 12+len(entry.PreMaster)+prf.MasterSecretSize)
	binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(entry.Timestamp))
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(entry.PreMaster)))
	buf = append(buf, entry.PreMaster...)
	buf = append(buf, entry.Master[:]...)

	_, err := w.Write(buf)
	return err
}
