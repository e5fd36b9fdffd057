// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bignum

import "math/bits"

// nat is an unsigned magnitude in little-endian digit order. Every digit
// holds DigitBits significant bits, the top bits are always zero.
type nat []uint32

// norm strips leading zero digits.
func norm(x nat) nat {
	i := len(x)
	for i > 0 && x[i-1] == 0 {
		i--
	}
	return x[:i]
}

// clone returns a copy of x that shares no storage with it.
func clone(x nat) nat {
	if len(x) == 0 {
		return nil
	}
	z := make(nat, len(x))
	copy(z, x)
	return z
}

// bitLen returns the number of significant bits in x.
func bitLen(x nat) int {
	if len(x) == 0 {
		return 0
	}
	return (len(x)-1)*DigitBits + bits.Len32(x[len(x)-1])
}

// bit returns the i'th bit of x.
func bit(x nat, i int) uint32 {
	d := i / DigitBits
	if d >= len(x) {
		return 0
	}
	return (x[d] >> uint(i%DigitBits)) & 1
}

// cmpNat compares two normalized magnitudes.
func cmpNat(x, y nat) int {
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	for i := len(x) - 1; i >= 0; i-- {
		switch {
		case x[i] < y[i]:
			return -1
		case x[i] > y[i]:
			return 1
		}
	}
	return 0
}

// addNat returns x + y.
func addNat(x, y nat) nat {
	if len(x) < len(y) {
		x, y = y, x
	}
	z := make(nat, len(x)+1)

	var c uint32
	for i := range x {
		s := x[i] + c
		if i < len(y) {
			s += y[i]
		}
		z[i] = s & digitMask
		c = s >> DigitBits
	}
	z[len(x)] = c
	return norm(z)
}

// subNat returns x - y. The caller guarantees x >= y.
func subNat(x, y nat) nat {
	z := make(nat, len(x))

	var borrow uint32
	for i := range x {
		s := x[i] - borrow
		if i < len(y) {
			s -= y[i]
		}
		z[i] = s & digitMask
		borrow = (s >> DigitBits) & 1
	}
	if borrow != 0 {
		panic("bignum: magnitude underflow")
	}
	return norm(z)
}

// mulNat returns x * y using schoolbook multiplication. Each 28x28 bit digit
// product plus carries fits into a 64 bit accumulator.
func mulNat(x, y nat) nat {
	if len(x) == 0 || len(y) == 0 {
		return nil
	}
	z := make(nat, len(x)+len(y))
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		var c uint64
		for j, yj := range y {
			t := uint64(z[i+j]) + uint64(xi)*uint64(yj) + c
			z[i+j] = uint32(t & digitMask)
			c = t >> DigitBits
		}
		z[i+len(y)] = uint32(c)
	}
	return norm(z)
}

// shlBits shifts x left by s < DigitBits bits, always returning one digit
// more than the input.
func shlBits(x nat, s uint) nat {
	z := make(nat, len(x)+1)

	var c uint32
	for i, d := range x {
		z[i] = (d<<s | c) & digitMask
		c = d >> (DigitBits - s)
	}
	z[len(x)] = c
	return z
}

// shrBits shifts x right by s < DigitBits bits.
func shrBits(x nat, s uint) nat {
	z := make(nat, len(x))
	for i := range x {
		d := x[i] >> s
		if i+1 < len(x) {
			d |= (x[i+1] << (DigitBits - s)) & digitMask
		}
		z[i] = d
	}
	return norm(z)
}

// divSmall divides x by a single non-zero digit.
func divSmall(x nat, d uint32) (nat, nat) {
	q := make(nat, len(x))

	var r uint64
	for i := len(x) - 1; i >= 0; i-- {
		cur := r<<DigitBits | uint64(x[i])
		q[i] = uint32(cur / uint64(d))
		r = cur % uint64(d)
	}
	if r == 0 {
		return norm(q), nil
	}
	return norm(q), nat{uint32(r)}
}

// divNat returns the quotient and remainder of u / v using Knuth's
// algorithm D (TAOCP vol. 2, 4.3.1) over base 2^28. v must be non-zero.
func divNat(u, v nat) (nat, nat) {
	if len(v) == 1 {
		return divSmall(u, v[0])
	}
	if cmpNat(u, v) < 0 {
		return nil, clone(u)
	}
	// Normalize so the top divisor digit has its high bit set
	s := uint(DigitBits - bits.Len32(v[len(v)-1]))
	vn := shlBits(v, s)[:len(v)]
	un := shlBits(u, s)

	n := len(vn)
	m := len(un) - n
	q := make(nat, m)

	vTop, vNext := uint64(vn[n-1]), uint64(vn[n-2])
	for j := m - 1; j >= 0; j-- {
		// Estimate the quotient digit from the top two digits
		num := uint64(un[j+n])<<DigitBits | uint64(un[j+n-1])
		qhat := num / vTop
		rhat := num % vTop
		for qhat >= digitBase || qhat*vNext > (rhat<<DigitBits|uint64(un[j+n-2])) {
			qhat--
			rhat += vTop
			if rhat >= digitBase {
				break
			}
		}
		// Multiply and subtract qhat*vn from the current window
		var (
			borrow int64
			carry  uint64
		)
		for i := 0; i < n; i++ {
			p := qhat*uint64(vn[i]) + carry
			carry = p >> DigitBits

			t := int64(un[i+j]) - int64(p&digitMask) + borrow
			un[i+j] = uint32(t & digitMask)
			borrow = t >> DigitBits
		}
		t := int64(un[j+n]) - int64(carry) + borrow
		un[j+n] = uint32(t & digitMask)

		// Estimate was one too large, add the divisor back
		if t < 0 {
			qhat--

			var c uint64
			for i := 0; i < n; i++ {
				s := uint64(un[i+j]) + uint64(vn[i]) + c
				un[i+j] = uint32(s & digitMask)
				c = s >> DigitBits
			}
			un[j+n] = uint32((uint64(un[j+n]) + c) & digitMask)
		}
		q[j] = uint32(qhat)
	}
	return norm(q), shrBits(un[:n], s)
}
