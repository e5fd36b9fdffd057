// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"crypto/hmac"
	"encoding/binary"
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/digest"
	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// Direction tells which peer wrote a record.
type Direction int

const (
	Uplink   Direction = 1 // Client to server, client write MAC secret
	Downlink Direction = 2 // Server to client, server write MAC secret
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Uplink:
		return "uplink"
	case Downlink:
		return "downlink"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Protocol version bytes placed into the MAC pseudo-header.
const (
	versionMajor = 0x03
	versionMinor = 0x01
)

// macSecret selects the MAC secret of a direction from the start of the key
// block, where the client write secret precedes the server write secret.
func macSecret(dir Direction, alg digest.Algorithm, keyBlock []byte) ([]byte, error) {
	size := alg.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: record: unknown MAC algorithm %s", errs.ErrUnsupportedAlgorithm, alg)
	}
	if len(keyBlock) < 2*size {
		return nil, fmt.Errorf("%w: record: key block too short for two %s secrets", errs.ErrMalformedEncoding, alg)
	}
	switch dir {
	case Uplink:
		return keyBlock[:size], nil
	case Downlink:
		return keyBlock[size : 2*size], nil
	default:
		return nil, fmt.Errorf("%w: record: unknown direction %d", errs.ErrKeyState, int(dir))
	}
}

// ComputeMAC returns the record MAC over
// seq(8) || type || version(2) || length(2) || payload.
func ComputeMAC(dir Direction, alg digest.Algorithm, keyBlock []byte, recType byte, seq uint64, payload []byte) ([]byte, error) {
	secret, err := macSecret(dir, alg, keyBlock)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0xffff {
		return nil, fmt.Errorf("%w: record: payload of %d bytes exceeds the length field", errs.ErrArithmeticOverflow, len(payload))
	}
	var hdr [13]byte
	binary.BigEndian.PutUint64(hdr[:8], seq)
	hdr[8] = recType
	hdr[9], hdr[10] = versionMajor, versionMinor
	binary.BigEndian.PutUint16(hdr[11:], uint16(len(payload)))

	return digest.HMAC(alg, secret, hdr[:], payload)
}

// VerifyMAC checks the MAC trailing the first payloadLen bytes of a decrypted
// record and returns the payload with the MAC stripped.
func VerifyMAC(dir Direction, alg digest.Algorithm, keyBlock []byte, recType byte, seq uint64, payloadLen int, plain []byte) ([]byte, error) {
	size := alg.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: record: unknown MAC algorithm %s", errs.ErrUnsupportedAlgorithm, alg)
	}
	if payloadLen < 0 || payloadLen+size > len(plain) {
		return nil, fmt.Errorf("%w: record: %d byte record cannot hold %d payload bytes and a MAC", errs.ErrMalformedEncoding, len(plain), payloadLen)
	}
	want, err := ComputeMAC(dir, alg, keyBlock, recType, seq, plain[:payloadLen])
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(want, plain[payloadLen:payloadLen+size]) {
		return nil, fmt.Errorf("%w: record: MAC mismatch", errs.ErrVerificationFailure)
	}
	return plain[:payloadLen], nil
}
