// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package record implements the TLS 1.0/1.1 record protection layer: bulk
// ciphers driven by externally derived keys and the HMAC check that
// authenticates each decrypted record.
package record

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rc4"
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/dgryski/go-rc2"
)

// Algorithm is a bulk cipher algorithm.
type Algorithm int

const (
	NULL Algorithm = iota
	AES
	TripleDES
	DES
	RC2
	RC4
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case NULL:
		return "NULL"
	case AES:
		return "AES"
	case TripleDES:
		return "3DES"
	case DES:
		return "DES"
	case RC2:
		return "RC2"
	case RC4:
		return "RC4"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// rc2EffectiveBits is the RC2 effective key length, fixed irrespective of the
// actual key length.
const rc2EffectiveBits = 128

// Cipher holds independent encryption and decryption states for one traffic
// direction. Block ciphers run without padding, so every call must cover a
// whole number of blocks. CBC chaining carries over between calls.
type Cipher struct {
	alg   Algorithm
	block int // Block size, 0 for stream ciphers

	encMode cipher.BlockMode // CBC states for AES, 3DES and DES
	decMode cipher.BlockMode
	ecb     cipher.Block // RC2 runs in ECB mode
	encRC4  *rc4.Cipher
	decRC4  *rc4.Cipher

	closed bool
}

// NewCipher creates a cipher context. AES picks its variant from the key
// length. RC2 runs in ECB mode with 128 effective key bits whatever the key
// length, and ignores the IV.
func NewCipher(alg Algorithm, iv, key []byte) (*Cipher, error) {
	c := &Cipher{alg: alg}

	var (
		blk cipher.Block
		err error
	)
	switch alg {
	case NULL:
		return c, nil

	case RC4:
		if c.encRC4, err = rc4.NewCipher(key); err != nil {
			return nil, fmt.Errorf("%w: record: %v", errs.ErrUnsupportedAlgorithm, err)
		}
		c.decRC4, _ = rc4.NewCipher(key)
		return c, nil

	case RC2:
		if len(key) == 0 || len(key) > 128 {
			return nil, fmt.Errorf("%w: record: invalid RC2 key length %d", errs.ErrUnsupportedAlgorithm, len(key))
		}
		if c.ecb, err = rc2.New(key, rc2EffectiveBits); err != nil {
			return nil, fmt.Errorf("%w: record: %v", errs.ErrUnsupportedAlgorithm, err)
		}
		c.block = c.ecb.BlockSize()
		return c, nil

	case AES:
		switch len(key) {
		case 16, 24, 32:
			blk, err = aes.NewCipher(key)
		default:
			return nil, fmt.Errorf("%w: record: invalid AES key length %d", errs.ErrUnsupportedAlgorithm, len(key))
		}
	case TripleDES:
		blk, err = des.NewTripleDESCipher(key)
	case DES:
		blk, err = des.NewCipher(key)
	default:
		return nil, fmt.Errorf("%w: record: unknown cipher %s", errs.ErrUnsupportedAlgorithm, alg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: record: %v", errs.ErrUnsupportedAlgorithm, err)
	}
	c.block = blk.BlockSize()
	if len(iv) != c.block {
		return nil, fmt.Errorf("%w: record: %s IV must be %d bytes, have %d", errs.ErrMalformedEncoding, alg, c.block, len(iv))
	}
	c.encMode = cipher.NewCBCEncrypter(blk, iv)
	c.decMode = cipher.NewCBCDecrypter(blk, iv)
	return c, nil
}

// Algorithm returns the bulk cipher of the context.
func (c *Cipher) Algorithm() Algorithm {
	return c.alg
}

// BlockSize returns the cipher block size, or 0 for stream ciphers.
func (c *Cipher) BlockSize() int {
	return c.block
}

// Encrypt encrypts src into dst, which may fully overlap.
func (c *Cipher) Encrypt(dst, src []byte) error {
	if err := c.check(dst, src); err != nil {
		return err
	}
	switch {
	case c.encRC4 != nil:
		c.encRC4.XORKeyStream(dst, src)
	case c.ecb != nil:
		for i := 0; i < len(src); i += c.block {
			c.ecb.Encrypt(dst[i:i+c.block], src[i:i+c.block])
		}
	case c.encMode != nil:
		c.encMode.CryptBlocks(dst[:len(src)], src)
	default:
		copy(dst, src)
	}
	return nil
}

// Decrypt decrypts src into dst, which may fully overlap.
func (c *Cipher) Decrypt(dst, src []byte) error {
	if err := c.check(dst, src); err != nil {
		return err
	}
	switch {
	case c.decRC4 != nil:
		c.decRC4.XORKeyStream(dst, src)
	case c.ecb != nil:
		for i := 0; i < len(src); i += c.block {
			c.ecb.Decrypt(dst[i:i+c.block], src[i:i+c.block])
		}
	case c.decMode != nil:
		c.decMode.CryptBlocks(dst[:len(src)], src)
	default:
		copy(dst, src)
	}
	return nil
}

// check validates the buffers of an Encrypt or Decrypt call.
func (c *Cipher) check(dst, src []byte) error {
	if c.closed {
		return fmt.Errorf("%w: record: cipher closed", errs.ErrKeyState)
	}
	if len(dst) < len(src) {
		return fmt.Errorf("%w: record: output buffer too small", errs.ErrArithmeticOverflow)
	}
	if c.block > 0 && len(src)%c.block != 0 {
		return fmt.Errorf("%w: record: %d bytes is not a multiple of the %d byte block", errs.ErrMalformedEncoding, len(src), c.block)
	}
	return nil
}

// Close releases both cipher states. Later calls fail.
func (c *Cipher) Close() {
	c.encMode, c.decMode, c.ecb = nil, nil, nil
	c.encRC4, c.decRC4 = nil, nil
	c.closed = true
}

// Closed reports whether Close has been called.
func (c *Cipher) Closed() bool {
	return c.closed
}
