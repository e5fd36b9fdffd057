// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package digest wraps the MD5 and SHA1 hashes and their HMAC variants used
// by TLS 1.0 and 1.1, both as one-shot functions over fragmented input and as
// incremental contexts.
//
// https://datatracker.ietf.org/doc/html/rfc2104
package digest

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"fmt"
	"hash"

	"github.com/dark-bio/tlsdecrypt-go/errs"
)

// Algorithm selects a hash or keyed hash function.
type Algorithm int

const (
	MD5 Algorithm = iota
	SHA1
	HMACMD5
	HMACSHA1
)

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	switch a {
	case MD5:
		return "MD5"
	case SHA1:
		return "SHA1"
	case HMACMD5:
		return "HMAC-MD5"
	case HMACSHA1:
		return "HMAC-SHA1"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// Size returns the output length of the algorithm in bytes, or 0 for an
// unknown algorithm.
func (a Algorithm) Size() int {
	switch a {
	case MD5, HMACMD5:
		return md5.Size
	case SHA1, HMACSHA1:
		return sha1.Size
	default:
		return 0
	}
}

// Keyed reports whether the algorithm is an HMAC.
func (a Algorithm) Keyed() bool {
	return a == HMACMD5 || a == HMACSHA1
}

// Context is a running hash computation. It must be created with New, fed
// with Write and consumed with Finish; it cannot be reused afterwards.
type Context struct {
	alg  Algorithm
	h    hash.Hash
	done bool
}

// New creates a hash context. The key is only used by the HMAC algorithms,
// keys longer than the block size are hashed down first.
func New(alg Algorithm, key []byte) (*Context, error) {
	var h hash.Hash
	switch alg {
	case MD5:
		h = md5.New()
	case SHA1:
		h = sha1.New()
	case HMACMD5:
		h = hmac.New(md5.New, key)
	case HMACSHA1:
		h = hmac.New(sha1.New, key)
	default:
		return nil, fmt.Errorf("%w: digest: unknown algorithm %s", errs.ErrUnsupportedAlgorithm, alg)
	}
	return &Context{alg: alg, h: h}, nil
}

// Algorithm returns the algorithm the context was created with.
func (c *Context) Algorithm() Algorithm {
	return c.alg
}

// Write feeds more data into the context.
func (c *Context) Write(p []byte) (int, error) {
	if c.done {
		return 0, fmt.Errorf("%w: digest: context already finished", errs.ErrKeyState)
	}
	return c.h.Write(p)
}

// Finish returns the digest and invalidates the context.
func (c *Context) Finish() ([]byte, error) {
	if c.done {
		return nil, fmt.Errorf("%w: digest: context already finished", errs.ErrKeyState)
	}
	c.done = true
	return c.h.Sum(nil), nil
}

// Sum hashes the concatenation of parts with the given algorithm.
func Sum(alg Algorithm, key []byte, parts ...[]byte) ([]byte, error) {
	ctx, err := New(alg, key)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		ctx.h.Write(p)
	}
	return ctx.Finish()
}

// HMAC computes a keyed hash over the concatenation of parts. The algorithm
// may be given as either the plain hash or its HMAC variant.
func HMAC(alg Algorithm, key []byte, parts ...[]byte) ([]byte, error) {
	switch alg {
	case MD5:
		alg = HMACMD5
	case SHA1:
		alg = HMACSHA1
	}
	if !alg.Keyed() {
		return nil, fmt.Errorf("%w: digest: no HMAC for %s", errs.ErrUnsupportedAlgorithm, alg)
	}
	return Sum(alg, key, parts...)
}

// MD5Vector hashes the concatenation of parts with MD5.
func MD5Vector(parts ...[]byte) [md5.Size]byte {
	h := md5.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [md5.Size]byte
	h.Sum(out[:0])
	return out
}

// SHA1Vector hashes the concatenation of parts with SHA1.
func SHA1Vector(parts ...[]byte) [sha1.Size]byte {
	h := sha1.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [sha1.Size]byte
	h.Sum(out[:0])
	return out
}

// HMACMD5Vector computes HMAC-MD5 over the concatenation of parts.
func HMACMD5Vector(key []byte, parts ...[]byte) [md5.Size]byte {
	h := hmac.New(md5.New, key)
	for _, p := range parts {
		h.Write(p)
	}
	var out [md5.Size]byte
	h.Sum(out[:0])
	return out
}

// HMACSHA1Vector computes HMAC-SHA1 over the concatenation of parts.
func HMACSHA1Vector(key []byte, parts ...[]byte) [sha1.Size]byte {
	h := hmac.New(sha1.New, key)
	for _, p := range parts {
		h.Write(p)
	}
	var out [sha1.Size]byte
	h.Sum(out[:0])
	return out
}
