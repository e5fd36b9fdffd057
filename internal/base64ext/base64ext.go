// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package base64ext provides the lenient base64 decoder used for PEM bodies:
// bytes outside the alphabet are skipped rather than rejected.
package base64ext

import (
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// invalid marks bytes outside the alphabet in the decoding table.
const invalid = 0x80

var decodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = invalid
	}
	for i := 0; i < len(alphabet); i++ {
		m[alphabet[i]] = byte(i)
	}
	m['='] = 0
	return m
}()

// Decode decodes standard base64, ignoring every byte that is neither in the
// alphabet nor a '=' pad. The remaining symbol count must be a positive
// multiple of four. Decoding stops after the first group containing padding,
// which may hold one or two '=' characters.
func Decode(src []byte) ([]byte, error) {
	var count int
	for _, c := range src {
		if decodeMap[c] != invalid {
			count++
		}
	}
	if count == 0 || count%4 != 0 {
		return nil, fmt.Errorf("%w: base64ext: %d symbols is not a positive multiple of 4", errs.ErrMalformedEncoding, count)
	}
	out := make([]byte, 0, count/4*3)

	var (
		block [4]byte
		n     int
		pad   int
	)
	for _, c := range src {
		v := decodeMap[c]
		if v == invalid {
			continue
		}
		if c == '=' {
			pad++
		}
		block[n] = v
		if n++; n < 4 {
			continue
		}
		out = append(out,
			block[0]<<2|block[1]>>4,
			block[1]<<4|block[2]>>2,
			block[2]<<6|block[3],
		)
		n = 0

		if pad == 0 {
			continue
		}
		switch pad {
		case 1:
			out = out[:len(out)-1]
		case 2:
			out = out[:len(out)-2]
		default:
			return nil, fmt.Errorf("%w: base64ext: invalid padding count %d", errs.ErrMalformedEncoding, pad)
		}
		break
	}
	return out, nil
}

// DecodeString is Decode for string inputs.
func DecodeString(s string) ([]byte, error) {
	return Decode([]byte(s))
}
