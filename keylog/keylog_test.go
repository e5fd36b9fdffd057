// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keylog

import (
	"bytes"
	"encoding/hex"
	"io"
	"testing"

	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests writing and reading back a sequence of entries.
func TestRoundtrip(t *testing.T) {
	var entries []*Entry
	for i := 0; i < 3; i++ {
		e := &Entry{
			Timestamp: 1700000000.25 + float64(i),
			PreMaster: bytes.Repeat([]byte{byte(i + 1)}, 48*i),
		}
		for j := range e.Master {
			e.Master[j] = byte(i*48 + j)
		}
		entries = append(entries, e)
	}
	var buf bytes.Buffer
	for _, e := range entries {
		require.NoError(t, Write(&buf, e))
	}
	assert.Equal(t, 3*(12+48)+48*3, buf.Len())

	have, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, have, 3)
	for i := range entries {
		assert.Equal(t, entries[i].Timestamp, have[i].Timestamp)
		assert.Equal(t, entries[i].PreMaster, have[i].PreMaster)
		assert.Equal(t, entries[i].Master, have[i].Master)
	}
}

// Tests decoding a hand assembled entry.
func TestLayout(t *testing.T) {
	// 1.5 as a little endian double, a 2 byte pre-master and a zero master
	raw := "000000000000f83f" + "02000000" + "0301" + hex.EncodeToString(make([]byte, 48))
	blob, _ := hex.DecodeString(raw)

	r := NewReader(bytes.NewReader(blob))
	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1.5, e.Timestamp)
	assert.Equal(t, []byte{0x03, 0x01}, e.PreMaster)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

// Tests that damaged streams are rejected.
func TestMalformed(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, Write(&good, &Entry{Timestamp: 1, PreMaster: make([]byte, 48)}))

	for _, n := range []int{1, 11, 12, 59, good.Len() - 1} {
		_, err := ReadAll(bytes.NewReader(good.Bytes()[:n]))
		assert.ErrorIs(t, err, errs.ErrMalformedEncoding, "truncated at %d", n)
	}
	for _, size := range []string{"01010000", "ffffffff"} {
		blob, _ := hex.DecodeString("0000000000000000" + size)
		_, err := ReadAll(bytes.NewReader(blob))
		assert.ErrorIs(t, err, errs.ErrMalformedEncoding, "length %s", size)
	}
	err := Write(io.Discard, &Entry{PreMaster: make([]byte, 257)})
	assert.ErrorIs(t, err, errs.ErrArithmeticOverflow)

	entries, err := ReadAll(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
