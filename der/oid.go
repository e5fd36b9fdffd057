// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// MaxOIDLen is the maximum number of arcs an OID may have.
const MaxOIDLen = 20

// OID is an ASN.1 object identifier as a sequence of arcs.
type OID []uint64

// OIDRSAEncryption is the PKCS#1 rsaEncryption algorithm identifier.
var OIDRSAEncryption = OID{1, 2, 840, 113549, 1, 1, 1}

// String renders the OID in dotted decimal form.
func (o OID) String() string {
	parts := make([]string, len(o))
	for i, arc := range o {
		parts[i] = strconv.FormatUint(arc, 10)
	}
	return strings.Join(parts, ".")
}

// Equal reports whether two OIDs have identical arcs.
func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// ParseOID decodes the payload of an OBJECT IDENTIFIER. The first encoded
// value packs two arcs as X*40+Y with X capped at 2, so any value of 80 or
// more decodes as 2.(value-80).
func ParseOID(payload []byte) (OID, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: der: empty object identifier", errs.ErrMalformedEncoding)
	}
	oid := make(OID, 0, 8)

	for pos := 0; pos < len(payload); {
		var val uint64
		for {
			if pos >= len(payload) {
				return nil, fmt.Errorf("%w: der: truncated object identifier arc", errs.ErrMalformedEncoding)
			}
			b := payload[pos]
			pos++

			if val > 1<<57 {
				return nil, fmt.Errorf("%w: der: object identifier arc too large", errs.ErrMalformedEncoding)
			}
			val = val<<7 | uint64(b&0x7f)
			if b&0x80 == 0 {
				break
			}
		}
		if len(oid) == 0 {
			x := min(val/40, 2)
			oid = append(oid, x, val-x*40)
		} else {
			oid = append(oid, val)
		}
		if len(oid) > MaxOIDLen {
			return nil, fmt.Errorf("%w: der: object identifier longer than %d arcs", errs.ErrMalformedEncoding, MaxOIDLen)
		}
	}
	return oid, nil
}
