// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bignum

// montgomery holds the precomputed state for Montgomery multiplication modulo
// an odd m with R = 2^(28*len(m)).
type montgomery struct {
	m  nat    // Odd modulus
	mp uint32 // -m^-1 mod 2^28
	rr nat    // R^2 mod m
}

// newMontgomery precomputes the reduction constants for the odd modulus m.
func newMontgomery(m nat) *montgomery {
	// Newton iteration for m0^-1 mod 2^32, each round doubles the valid bits
	inv := m[0]
	for i := 0; i < 4; i++ {
		inv *= 2 - m[0]*inv
	}
	n := len(m)

	r2 := make(nat, 2*n+1)
	r2[2*n] = 1
	_, rr := divNat(r2, m)

	return &montgomery{
		m:  m,
		mp: (-inv) & digitMask,
		rr: rr,
	}
}

// redc returns t * R^-1 mod m for any t < m*R.
func (mt *montgomery) redc(in nat) nat {
	n := len(mt.m)

	t := make(nat, 2*n+1)
	copy(t, in)

	for i := 0; i < n; i++ {
		u := uint64((t[i] * mt.mp) & digitMask)

		var c uint64
		for j, mj := range mt.m {
			s := uint64(t[i+j]) + u*uint64(mj) + c
			t[i+j] = uint32(s & digitMask)
			c = s >> DigitBits
		}
		for k := i + n; c != 0 && k < len(t); k++ {
			s := uint64(t[k]) + c
			t[k] = uint32(s & digitMask)
			c = s >> DigitBits
		}
	}
	res := norm(clone(t[n:]))
	if cmpNat(res, mt.m) >= 0 {
		res = subNat(res, mt.m)
	}
	return res
}

// mul returns a * b * R^-1 mod m for a, b < m.
func (mt *montgomery) mul(a, b nat) nat {
	return mt.redc(mulNat(a, b))
}

// exp returns x^y mod m for x < m, scanning the exponent from the top bit.
func (mt *montgomery) exp(x, y nat) nat {
	if len(y) == 0 {
		return nat{1}
	}
	xm := mt.mul(x, mt.rr)
	acc := mt.redc(mt.rr)

	for i := bitLen(y) - 1; i >= 0; i-- {
		acc = mt.mul(acc, acc)
		if bit(y, i) == 1 {
			acc = mt.mul(acc, xm)
		}
	}
	return mt.redc(acc)
}
