// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rsa provides RSA private key import and the raw RSA operations
// needed to recover TLS pre-master secrets from RSA key exchanges.
//
// The arithmetic runs on the in-house bignum engine with the Chinese
// Remainder Theorem for private operations. It is neither blinded nor
// constant time.
//
// https://datatracker.ietf.org/doc/html/rfc8017
package rsa

import (
	"crypto/sha256"
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/bignum"
	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// Key is an RSA key. Public keys only carry N and E; private keys also carry
// the private exponent and the CRT parameters.
type Key struct {
	N    *bignum.Int // Modulus
	E    *bignum.Int // Public exponent
	D    *bignum.Int // Private exponent
	P    *bignum.Int // First prime
	Q    *bignum.Int // Second prime
	Dmp1 *bignum.Int // D mod (P-1)
	Dmq1 *bignum.Int // D mod (Q-1)
	Iqmp *bignum.Int // Q^-1 mod P

	private  bool
	released bool
}

// IsPrivate reports whether the key carries the private CRT parameters.
func (k *Key) IsPrivate() bool {
	return k.private && !k.released
}

// PublicKey returns an independent public-only copy of the key.
func (k *Key) PublicKey() *Key {
	return &Key{
		N: new(bignum.Int).Set(k.N),
		E: new(bignum.Int).Set(k.E),
	}
}

// ModulusLen returns the byte length of the modulus.
func (k *Key) ModulusLen() int {
	return k.N.ByteLen()
}

// Fingerprint returns a 256-bit identifier for this key, the SHA256 hash of
// the big-endian modulus followed by the big-endian public exponent.
func (k *Key) Fingerprint() [32]byte {
	h := sha256.New()
	h.Write(k.N.Bytes())
	h.Write(k.E.Bytes())

	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Release wipes all key material. Any later operation on the key fails.
func (k *Key) Release() {
	for _, x := range []*bignum.Int{k.N, k.E, k.D, k.P, k.Q, k.Dmp1, k.Dmq1, k.Iqmp} {
		if x != nil {
			x.Wipe()
		}
	}
	k.private = false
	k.released = true
}

// usable checks that the key has not been released.
func (k *Key) usable() error {
	if k.released || k.N == nil || k.E == nil {
		return fmt.Errorf("%w: rsa: key released or uninitialized", errs.ErrKeyState)
	}
	return nil
}
