// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"fmt"
	"io"

	"github.com/dark-bio/tlsdecrypt-go/bignum"
	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// ExpMod runs the raw RSA operation on a big-endian input, which must be
// smaller than the modulus. Private operations use the CRT parameters, public
// ones raise to E. The output is always ModulusLen bytes long.
func (k *Key) ExpMod(in []byte, private bool) ([]byte, error) {
	if err := k.usable(); err != nil {
		return nil, err
	}
	c := bignum.FromBytes(in)
	if c.Cmp(k.N) >= 0 {
		return nil, fmt.Errorf("%w: rsa: input not smaller than modulus", errs.ErrArithmeticOverflow)
	}
	if private && !k.private {
		return nil, fmt.Errorf("%w: rsa: private operation on public key", errs.ErrKeyState)
	}
	var (
		m   *bignum.Int
		err error
	)
	if private {
		m, err = k.crt(c)
	} else {
		m, err = new(bignum.Int).ExpMod(c, k.E, k.N)
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, k.ModulusLen())
	if err := m.FillBytes(out); err != nil {
		return nil, err
	}
	return out, nil
}

// crt computes c^d mod n from the two half-size exponentiations.
func (k *Key) crt(c *bignum.Int) (*bignum.Int, error) {
	m1, err := new(bignum.Int).ExpMod(c, k.Dmp1, k.P)
	if err != nil {
		return nil, err
	}
	m2, err := new(bignum.Int).ExpMod(c, k.Dmq1, k.Q)
	if err != nil {
		return nil, err
	}
	// h = (m1 - m2) * iqmp mod p
	h := new(bignum.Int).Sub(m1, m2)
	if _, err := h.MulMod(h, k.Iqmp, k.P); err != nil {
		return nil, err
	}
	// m = m2 + h * q
	m := new(bignum.Int).Mul(h, k.Q)
	return m.Add(m, m2), nil
}

// EncryptRaw runs the public RSA operation on a padded block.
func (k *Key) EncryptRaw(block []byte) ([]byte, error) {
	return k.ExpMod(block, false)
}

// DecryptPKCS1v15 decrypts an RSAES-PKCS1-v1_5 ciphertext and removes the
// type 2 padding, returning the embedded message.
func (k *Key) DecryptPKCS1v15(ciphertext []byte) ([]byte, error) {
	block, err := k.ExpMod(ciphertext, true)
	if err != nil {
		return nil, err
	}
	return UnpadPKCS1v15(block)
}

// EncryptPKCS1v15 pads msg with non-zero random bytes from rand and runs the
// public RSA operation on it.
func (k *Key) EncryptPKCS1v15(rand io.Reader, msg []byte) ([]byte, error) {
	if err := k.usable(); err != nil {
		return nil, err
	}
	size := k.ModulusLen()
	if len(msg) > size-11 {
		return nil, fmt.Errorf("%w: rsa: message too long for modulus", errs.ErrArithmeticOverflow)
	}
	block := make([]byte, size)
	block[1] = 0x02

	ps := block[2 : size-len(msg)-1]
	if _, err := io.ReadFull(rand, ps); err != nil {
		return nil, err
	}
	for i := range ps {
		for ps[i] == 0 {
			if _, err := io.ReadFull(rand, ps[i:i+1]); err != nil {
				return nil, err
			}
		}
	}
	copy(block[size-len(msg):], msg)
	return k.EncryptRaw(block)
}

// UnpadPKCS1v15 strips PKCS#1 v1.5 type 2 padding: 0x00 0x02, a run of
// non-zero bytes and a zero terminator. A bad marker and a missing terminator
// are reported with the same error.
func UnpadPKCS1v15(block []byte) ([]byte, error) {
	if len(block) < 3 || block[0] != 0x00 || block[1] != 0x02 {
		return nil, fmt.Errorf("%w: rsa: invalid PKCS#1 v1.5 padding", errs.ErrVerificationFailure)
	}
	for i := 2; i < len(block); i++ {
		if block[i] == 0x00 {
			return block[i+1:], nil
		}
	}
	return nil, fmt.Errorf("%w: rsa: invalid PKCS#1 v1.5 padding", errs.ErrVerificationFailure)
}
