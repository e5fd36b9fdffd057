// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bignum implements the arbitrary-precision integers backing the RSA
// engine.
//
// Values are stored as a sign and a little-endian sequence of 28-bit digits,
// so the product of two digits plus carries always fits into a 64-bit
// accumulator. The implementation favours simplicity over speed: schoolbook
// multiplication, Knuth division and square-and-multiply exponentiation with
// Montgomery reduction for odd moduli. None of it is constant time.
//
// Methods follow the math/big convention of writing the result into the
// receiver and returning it, so z may alias any of the operands.
package bignum

import (
	"encoding/hex"
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

const (
	// DigitBits is the number of significant bits stored in every digit.
	DigitBits = 28

	digitBase = 1 << DigitBits
	digitMask = digitBase - 1
)

// Int is a signed arbitrary-precision integer. The zero value is 0.
type Int struct {
	neg bool
	dp  nat
}

// FromBytes returns a new Int holding the big-endian unsigned value of buf.
func FromBytes(buf []byte) *Int {
	return new(Int).SetBytes(buf)
}

// FromUint64 returns a new Int holding v.
func FromUint64(v uint64) *Int {
	return new(Int).SetUint64(v)
}

// SetBytes interprets buf as a big-endian unsigned integer and sets z to it.
// Leading zero bytes are dropped and an empty buffer yields zero.
func (z *Int) SetBytes(buf []byte) *Int {
	dp := make(nat, 0, (len(buf)*8+DigitBits-1)/DigitBits)

	var (
		acc  uint64
		have uint
	)
	for i := len(buf) - 1; i >= 0; i-- {
		acc |= uint64(buf[i]) << have
		have += 8
		if have >= DigitBits {
			dp = append(dp, uint32(acc&digitMask))
			acc >>= DigitBits
			have -= DigitBits
		}
	}
	if have > 0 {
		dp = append(dp, uint32(acc))
	}
	z.neg = false
	z.dp = norm(dp)
	return z
}

// SetUint64 sets z to v.
func (z *Int) SetUint64(v uint64) *Int {
	z.neg = false
	z.dp = z.dp[:0]
	for v != 0 {
		z.dp = append(z.dp, uint32(v&digitMask))
		v >>= DigitBits
	}
	return z
}

// Set sets z to a copy of x.
func (z *Int) Set(x *Int) *Int {
	if z != x {
		z.neg = x.neg
		z.dp = clone(x.dp)
	}
	return z
}

// Neg sets z to -x.
func (z *Int) Neg(x *Int) *Int {
	z.Set(x)
	z.neg = len(z.dp) > 0 && !z.neg
	return z
}

// Wipe zeroes the digit storage of z and resets it to 0.
func (z *Int) Wipe() {
	for i := range z.dp[:cap(z.dp)] {
		z.dp[:cap(z.dp)][i] = 0
	}
	z.dp = nil
	z.neg = false
}

// Sign returns -1, 0 or +1 depending on the sign of x.
func (x *Int) Sign() int {
	switch {
	case len(x.dp) == 0:
		return 0
	case x.neg:
		return -1
	default:
		return 1
	}
}

// IsZero reports whether x is 0.
func (x *Int) IsZero() bool {
	return len(x.dp) == 0
}

// Digits returns the number of used digits of x.
func (x *Int) Digits() int {
	return len(x.dp)
}

// BitLen returns the length of the absolute value of x in bits.
func (x *Int) BitLen() int {
	return bitLen(x.dp)
}

// ByteLen returns the length of the minimal big-endian encoding of |x|.
func (x *Int) ByteLen() int {
	return (bitLen(x.dp) + 7) / 8
}

// Bit returns the value of the i'th bit of |x|.
func (x *Int) Bit(i int) uint {
	return uint(bit(x.dp, i))
}

// Bytes returns the minimal big-endian encoding of |x|. Zero encodes to an
// empty slice.
func (x *Int) Bytes() []byte {
	buf := make([]byte, x.ByteLen())
	x.fill(buf)
	return buf
}

// FillBytes writes |x| into buf as a big-endian integer, left-padded with
// zeroes. It fails if the value needs more bytes than buf holds.
func (x *Int) FillBytes(buf []byte) error {
	if need := x.ByteLen(); need > len(buf) {
		return fmt.Errorf("%w: bignum: value needs %d bytes, buffer has %d", errs.ErrArithmeticOverflow, need, len(buf))
	}
	clear(buf)
	x.fill(buf)
	return nil
}

// fill writes the digits of x into the tail of buf, which must be zeroed and
// large enough.
func (x *Int) fill(buf []byte) {
	var (
		acc  uint64
		have uint
		pos  = len(buf) - 1
	)
	for _, d := range x.dp {
		acc |= uint64(d) << have
		have += DigitBits
		for have >= 8 && pos >= 0 {
			buf[pos] = byte(acc)
			acc >>= 8
			have -= 8
			pos--
		}
	}
	for acc != 0 && pos >= 0 {
		buf[pos] = byte(acc)
		acc >>= 8
		pos--
	}
}

// Text returns the hexadecimal representation of x, prefixed with a minus
// sign for negative values.
func (x *Int) Text() string {
	if len(x.dp) == 0 {
		return "0"
	}
	s := hex.EncodeToString(x.Bytes())
	if s[0] == '0' {
		s = s[1:]
	}
	if x.neg {
		return "-" + s
	}
	return s
}

// String implements fmt.Stringer.
func (x *Int) String() string {
	return x.Text()
}

// Cmp compares x and y, returning -1, 0 or +1.
func (x *Int) Cmp(y *Int) int {
	switch {
	case x.neg && !y.neg:
		return -1
	case !x.neg && y.neg:
		return 1
	case x.neg:
		return -cmpNat(x.dp, y.dp)
	default:
		return cmpNat(x.dp, y.dp)
	}
}

// CmpAbs compares |x| and |y|, returning -1, 0 or +1.
func (x *Int) CmpAbs(y *Int) int {
	return cmpNat(x.dp, y.dp)
}

// CmpSmall compares x against a single machine word, returning -1, 0 or +1.
func (x *Int) CmpSmall(v uint32) int {
	if x.neg {
		return -1
	}
	return cmpNat(x.dp, new(Int).SetUint64(uint64(v)).dp)
}

// Add sets z to x + y.
func (z *Int) Add(x, y *Int) *Int {
	return z.addSigned(x.dp, x.neg, y.dp, y.neg)
}

// Sub sets z to x - y.
func (z *Int) Sub(x, y *Int) *Int {
	return z.addSigned(x.dp, x.neg, y.dp, !y.neg)
}

// addSigned sets z to (±a) + (±b).
func (z *Int) addSigned(a nat, aneg bool, b nat, bneg bool) *Int {
	if aneg == bneg {
		z.dp = addNat(a, b)
		z.neg = aneg
	} else {
		switch cmpNat(a, b) {
		case 0:
			z.dp = nil
			z.neg = false
		case 1:
			z.dp = subNat(a, b)
			z.neg = aneg
		default:
			z.dp = subNat(b, a)
			z.neg = bneg
		}
	}
	z.neg = z.neg && len(z.dp) > 0
	return z
}

// Mul sets z to x * y.
func (z *Int) Mul(x, y *Int) *Int {
	neg := x.neg != y.neg
	z.dp = mulNat(x.dp, y.dp)
	z.neg = neg && len(z.dp) > 0
	return z
}

// DivMod sets z to the quotient x / y truncated towards zero and returns the
// remainder, which carries the sign of x. It fails if y is zero.
func (z *Int) DivMod(x, y *Int) (*Int, *Int, error) {
	if len(y.dp) == 0 {
		return nil, nil, fmt.Errorf("%w: bignum: division by zero", errs.ErrArithmeticOverflow)
	}
	q, r := divNat(x.dp, y.dp)

	rem := &Int{dp: r, neg: x.neg && len(r) > 0}
	z.neg = x.neg != y.neg && len(q) > 0
	z.dp = q
	return z, rem, nil
}

// Mod sets z to x mod |m|, always in the range [0, |m|). It fails if m is
// zero.
func (z *Int) Mod(x, m *Int) (*Int, error) {
	if len(m.dp) == 0 {
		return nil, fmt.Errorf("%w: bignum: zero modulus", errs.ErrArithmeticOverflow)
	}
	_, r := divNat(x.dp, m.dp)
	if x.neg && len(r) > 0 {
		r = subNat(m.dp, r)
	}
	z.neg = false
	z.dp = r
	return z, nil
}

// MulMod sets z to x * y mod |m|. It fails if m is zero.
func (z *Int) MulMod(x, y, m *Int) (*Int, error) {
	if len(m.dp) == 0 {
		return nil, fmt.Errorf("%w: bignum: zero modulus", errs.ErrArithmeticOverflow)
	}
	return z.Mod(new(Int).Mul(x, y), m)
}

// ExpMod sets z to x^y mod |m|. The exponent must not be negative and the
// modulus must not be zero.
func (z *Int) ExpMod(x, y, m *Int) (*Int, error) {
	if len(m.dp) == 0 {
		return nil, fmt.Errorf("%w: bignum: zero modulus", errs.ErrArithmeticOverflow)
	}
	if y.neg {
		return nil, fmt.Errorf("%w: bignum: negative exponent", errs.ErrArithmeticOverflow)
	}
	mod := &Int{dp: m.dp}

	// Anything modulo one is zero
	if len(mod.dp) == 1 && mod.dp[0] == 1 {
		z.neg, z.dp = false, nil
		return z, nil
	}
	base, err := new(Int).Mod(x, mod)
	if err != nil {
		return nil, err
	}
	var res nat
	if mod.dp[0]&1 == 1 {
		res = newMontgomery(mod.dp).exp(base.dp, y.dp)
	} else {
		res = expPlain(base.dp, y.dp, mod.dp)
	}
	z.neg = false
	z.dp = res
	return z, nil
}

// expPlain computes x^y mod m with square-and-multiply, reducing by long
// division after every step. Used for even moduli only.
func expPlain(x, y, m nat) nat {
	res := nat{1}
	for i := bitLen(y) - 1; i >= 0; i-- {
		_, res = divNat(mulNat(res, res), m)
		if bit(y, i) == 1 {
			_, res = divNat(mulNat(res, x), m)
		}
	}
	// A zero exponent still needs a reduced result (1 mod m)
	_, res = divNat(res, m)
	return res
}
