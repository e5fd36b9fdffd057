// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prf implements the TLS 1.0 and 1.1 pseudo-random function, which
// XORs a P_MD5 and a P_SHA1 stream keyed by the two halves of the secret.
//
// https://datatracker.ietf.org/doc/html/rfc2246#section-5
package prf

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"hash"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

const (
	// MasterSecretSize is the length of a TLS master secret.
	MasterSecretSize = 48

	// RandomSize is the length of the client and server hello randoms.
	RandomSize = 32

	labelMasterSecret = "master secret"
	labelKeyExpansion = "key expansion"
)

// TLS10 expands secret into n bytes bound to label and seed. Secrets of odd
// length are rejected rather than split with a shared middle byte.
func TLS10(secret []byte, label string, seed []byte, n int) ([]byte, error) {
	if len(secret)%2 != 0 {
		return nil, fmt.Errorf("%w: prf: odd secret length %d", errs.ErrMalformedEncoding, len(secret))
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: prf: negative output length", errs.ErrArithmeticOverflow)
	}
	full := make([]byte, 0, len(label)+len(seed))
	full = append(append(full, label...), seed...)

	half := len(secret) / 2
	out := make([]byte, n)
	pHash(out, md5.New, secret[:half], full)

	tmp := make([]byte, n)
	pHash(tmp, sha1.New, secret[half:], full)
	for i := range out {
		out[i] ^= tmp[i]
	}
	return out, nil
}

// pHash fills out with P_hash(secret, seed):
// HMAC(secret, A(1) + seed) + HMAC(secret, A(2) + seed) + ...
// where A(0) = seed and A(i) = HMAC(secret, A(i-1)).
func pHash(out []byte, h func() hash.Hash, secret, seed []byte) {
	mac := hmac.New(h, secret)
	mac.Write(seed)
	a := mac.Sum(nil)

	for pos := 0; pos < len(out); {
		mac.Reset()
		mac.Write(a)
		mac.Write(seed)
		pos += copy(out[pos:], mac.Sum(nil))

		mac.Reset()
		mac.Write(a)
		a = mac.Sum(a[:0])
	}
}

// MasterSecret derives the 48-byte master secret from a pre-master secret
// and the hello randoms.
func MasterSecret(preMaster, clientRandom, serverRandom []byte) ([]byte, error) {
	seed := make([]byte, 0, len(clientRandom)+len(serverRandom))
	seed = append(append(seed, clientRandom...), serverRandom...)
	return TLS10(preMaster, labelMasterSecret, seed, MasterSecretSize)
}

// KeyBlock expands a master secret into n bytes of key material. Note the
// seed order is server random first, unlike MasterSecret.
func KeyBlock(master, serverRandom, clientRandom []byte, n int) ([]byte, error) {
	seed := make([]byte, 0, len(serverRandom)+len(clientRandom))
	seed = append(append(seed, serverRandom...), clientRandom...)
	return TLS10(master, labelKeyExpansion, seed, n)
}
