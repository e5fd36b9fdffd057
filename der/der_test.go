// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// Tests that well formed headers decode into the expected fields.
func TestReadHeader(t *testing.T) {
	tests := []struct {
		input       string
		class       Class
		constructed bool
		tag         uint32
		length      int
		consumed    int
	}{
		{"0500", ClassUniversal, false, TagNull, 0, 2},
		{"020101", ClassUniversal, false, TagInteger, 1, 3},
		{"3003020100", ClassUniversal, true, TagSequence, 3, 5},
		{"a0020500", ClassContext, true, 0, 2, 4},
		{"5f2101ff", ClassApplication, false, 0x21, 1, 4},
		{"df81800001aa", ClassPrivate, false, 0x4000, 1, 6},
		{"04810100", ClassUniversal, false, TagOctetString, 1, 4},
		{"0482000100", ClassUniversal, false, TagOctetString, 1, 5},
	}
	for _, tt := range tests {
		buf, _ := hex.DecodeString(tt.input)

		h, n, err := ReadHeader(buf)
		if err != nil {
			t.Errorf("header %s: failed to parse: %v", tt.input, err)
			continue
		}
		if h.Class != tt.class || h.Constructed != tt.constructed || h.Tag != tt.tag || h.Length != tt.length {
			t.Errorf("header %s: have %s/%v/%d/%d, want %s/%v/%d/%d", tt.input,
				h.Class, h.Constructed, h.Tag, h.Length, tt.class, tt.constructed, tt.tag, tt.length)
		}
		if n != tt.consumed {
			t.Errorf("header %s: consumed mismatch: have %d, want %d", tt.input, n, tt.consumed)
		}
		if !bytes.Equal(h.Payload, buf[n-h.Length:n]) {
			t.Errorf("header %s: payload window mismatch", tt.input)
		}
		// Reparsing the same bytes must yield the same result
		h2, n2, err := ReadHeader(buf)
		if err != nil || n2 != n || h2.Tag != h.Tag || h2.Length != h.Length {
			t.Errorf("header %s: reparse mismatch", tt.input)
		}
	}
}

// Tests that structurally broken headers are rejected as malformed.
func TestReadHeaderFailures(t *testing.T) {
	tests := []string{
		"",             // empty buffer
		"1f",           // high tag without continuation bytes
		"1f81",         // high tag continuation runs off the buffer
		"02",           // missing length
		"02ff",         // reserved length
		"028500000001", // length field longer than 4 octets
		"0282",         // truncated long-form length
		"028201",       // truncated long-form length
		"0203aabb",     // payload shorter than the length
		"0484ffffffff", // huge length
	}
	for _, input := range tests {
		buf, _ := hex.DecodeString(input)
		if _, _, err := ReadHeader(buf); !errors.Is(err, errs.ErrMalformedEncoding) {
			t.Errorf("header %q: error mismatch: have %v, want %v", input, err, errs.ErrMalformedEncoding)
		}
	}
}

// Tests object identifier decoding, including the permissive first-arc rule.
func TestParseOID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2a864886f70d010101", "1.2.840.113549.1.1.1"},
		{"2b0e03021a", "1.3.14.3.2.26"},
		{"00", "0.0"},
		{"27", "0.39"},
		{"50", "2.0"},
		{"78", "2.40"},
		{"8137", "2.103"},
	}
	for _, tt := range tests {
		buf, _ := hex.DecodeString(tt.input)

		oid, err := ParseOID(buf)
		if err != nil {
			t.Errorf("oid %s: failed to parse: %v", tt.input, err)
			continue
		}
		if have := oid.String(); have != tt.want {
			t.Errorf("oid %s: have %s, want %s", tt.input, have, tt.want)
		}
	}
	rsa, _ := hex.DecodeString("2a864886f70d010101")
	if oid, _ := ParseOID(rsa); !oid.Equal(OIDRSAEncryption) {
		t.Errorf("rsaEncryption oid mismatch: have %s, want %s", oid, OIDRSAEncryption)
	}
}

// Tests that broken or oversized object identifiers are rejected.
func TestParseOIDFailures(t *testing.T) {
	long := bytes.Repeat([]byte{0x01}, MaxOIDLen)
	if _, err := ParseOID(long); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("long oid: error mismatch: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	ok := bytes.Repeat([]byte{0x01}, MaxOIDLen-1)
	if oid, err := ParseOID(ok); err != nil || len(oid) != MaxOIDLen {
		t.Errorf("max oid: have %v/%v, want %d arcs", oid, err, MaxOIDLen)
	}
	for _, input := range []string{"", "2a86", "ffffffffffffffffffff01"} {
		buf, _ := hex.DecodeString(input)
		if _, err := ParseOID(buf); !errors.Is(err, errs.ErrMalformedEncoding) {
			t.Errorf("oid %q: error mismatch: have %v, want %v", input, err, errs.ErrMalformedEncoding)
		}
	}
}

// Tests walking a nested structure with the cursor.
func TestReader(t *testing.T) {
	// SEQUENCE { INTEGER 0, SEQUENCE { OID rsaEncryption, NULL }, OCTET STRING 0xaabb }
	buf, _ := hex.DecodeString("3016020100300d06092a864886f70d0101010500" + "0402aabb")

	seq, err := NewReader(buf).ReadSequence()
	if err != nil {
		t.Fatalf("failed to read sequence: %v", err)
	}
	version, err := seq.ReadInteger()
	if err != nil || !version.IsZero() {
		t.Fatalf("version mismatch: have %v/%v, want 0", version, err)
	}
	alg, err := seq.ReadSequence()
	if err != nil {
		t.Fatalf("failed to read algorithm: %v", err)
	}
	oid, err := alg.ReadOID()
	if err != nil || !oid.Equal(OIDRSAEncryption) {
		t.Fatalf("oid mismatch: have %v/%v, want %s", oid, err, OIDRSAEncryption)
	}
	if _, err := alg.Expect(ClassUniversal, TagNull); err != nil {
		t.Fatalf("failed to read null: %v", err)
	}
	if err := alg.Finish(); err != nil {
		t.Fatalf("algorithm not consumed: %v", err)
	}
	body, err := seq.ReadOctetString()
	if err != nil || !bytes.Equal(body, []byte{0xaa, 0xbb}) {
		t.Fatalf("octet string mismatch: have %x/%v", body, err)
	}
	if !seq.Empty() {
		t.Errorf("sequence not empty")
	}
	if err := seq.Finish(); err != nil {
		t.Errorf("sequence not consumed: %v", err)
	}
}

// Tests that the cursor reports tag mismatches and leftovers.
func TestReaderFailures(t *testing.T) {
	buf, _ := hex.DecodeString("0201010500")

	r := NewReader(buf)
	if _, err := r.ReadOID(); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("tag mismatch: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	r = NewReader(buf)
	if _, err := r.ReadInteger(); err != nil {
		t.Fatalf("failed to read integer: %v", err)
	}
	if err := r.Finish(); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("trailing bytes: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	if _, err := NewReader([]byte{0x02, 0x00}).ReadInteger(); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("empty integer: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
}

// FuzzReadHeader checks that the header parser never panics and that any
// accepted header describes a window inside the input.
func FuzzReadHeader(f *testing.F) {
	f.Add([]byte{0x30, 0x00})
	f.Add([]byte{0x1f, 0x81, 0x00, 0x00})
	f.Add([]byte{0x04, 0x82, 0x00, 0x01, 0xaa})

	f.Fuzz(func(t *testing.T, data []byte) {
		h, n, err := ReadHeader(data)
		if err != nil {
			return
		}
		if n > len(data) || h.Length != len(h.Payload) || n < h.Length {
			t.Fatalf("inconsistent header: consumed %d of %d, length %d", n, len(data), h.Length)
		}
		if _, err := ParseOID(h.Payload); err == nil && h.Length == 0 {
			t.Fatalf("empty oid accepted")
		}
	})
}
