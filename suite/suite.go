// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package suite holds the TLS 1.0/1.1 cipher suite tables and the layout of
// the key block derived for each suite.
//
// https://datatracker.ietf.org/doc/html/rfc2246#appendix-A.5
package suite

import (
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/digest"
	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/dark-bio/tlsdecrypt-go/record"
)

// KeyExchange is the key exchange method of a cipher suite.
type KeyExchange int

const (
	KeyExchangeNULL KeyExchange = iota
	KeyExchangeRSA
	KeyExchangeDHAnon
)

// String implements fmt.Stringer.
func (k KeyExchange) String() string {
	switch k {
	case KeyExchangeNULL:
		return "NULL"
	case KeyExchangeRSA:
		return "RSA"
	case KeyExchangeDHAnon:
		return "DH_anon"
	default:
		return fmt.Sprintf("KeyExchange(%d)", int(k))
	}
}

// Cipher is the bulk cipher of a cipher suite.
type Cipher int

const (
	CipherNULL Cipher = iota
	CipherIDEACBC
	CipherRC2CBC40
	CipherRC440
	CipherRC4128
	CipherDES40CBC
	CipherDESCBC
	Cipher3DESEDECBC
	CipherAES128CBC
	CipherAES256CBC
)

var cipherNames = map[Cipher]string{
	CipherNULL:       "NULL",
	CipherIDEACBC:    "IDEA_CBC",
	CipherRC2CBC40:   "RC2_CBC_40",
	CipherRC440:      "RC4_40",
	CipherRC4128:     "RC4_128",
	CipherDES40CBC:   "DES40_CBC",
	CipherDESCBC:     "DES_CBC",
	Cipher3DESEDECBC: "3DES_EDE_CBC",
	CipherAES128CBC:  "AES_128_CBC",
	CipherAES256CBC:  "AES_256_CBC",
}

// String implements fmt.Stringer.
func (c Cipher) String() string {
	if name, ok := cipherNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cipher(%d)", int(c))
}

// Hash is the record MAC hash of a cipher suite.
type Hash int

const (
	HashNULL Hash = iota
	HashMD5
	HashSHA
)

// String implements fmt.Stringer.
func (h Hash) String() string {
	switch h {
	case HashNULL:
		return "NULL"
	case HashMD5:
		return "MD5"
	case HashSHA:
		return "SHA"
	default:
		return fmt.Sprintf("Hash(%d)", int(h))
	}
}

// Size returns the MAC length of the hash in bytes.
func (h Hash) Size() int {
	switch h {
	case HashMD5:
		return digest.MD5.Size()
	case HashSHA:
		return digest.SHA1.Size()
	default:
		return 0
	}
}

// Digest returns the digest algorithm keying the record MAC. It fails for
// the NULL hash.
func (h Hash) Digest() (digest.Algorithm, error) {
	switch h {
	case HashMD5:
		return digest.MD5, nil
	case HashSHA:
		return digest.SHA1, nil
	default:
		return 0, fmt.Errorf("%w: suite: no MAC for hash %s", errs.ErrUnsupportedAlgorithm, h)
	}
}

// Type tells stream ciphers apart from block ciphers.
type Type int

const (
	Stream Type = iota
	Block
)

// String implements fmt.Stringer.
func (t Type) String() string {
	if t == Block {
		return "block"
	}
	return "stream"
}

// CipherSuite describes a negotiated cipher suite.
type CipherSuite struct {
	ID          uint16
	KeyExchange KeyExchange
	Cipher      Cipher
	Hash        Hash
}

// CipherData describes the key material sizing of a bulk cipher.
type CipherData struct {
	Cipher              Cipher
	Type                Type
	KeyMaterial         int // Bytes taken from the key block
	ExpandedKeyMaterial int // Key length after export expansion
	BlockSize           int // IV length, 0 for stream ciphers
	Alg                 record.Algorithm
}

// Exportable reports whether the cipher uses a reduced key that would need
// export expansion before use.
func (d CipherData) Exportable() bool {
	return d.KeyMaterial != d.ExpandedKeyMaterial
}

// Supported cipher suite identifiers.
const (
	TLS_NULL_WITH_NULL_NULL           uint16 = 0x0000
	TLS_RSA_WITH_RC4_128_MD5          uint16 = 0x0004
	TLS_RSA_WITH_RC4_128_SHA          uint16 = 0x0005
	TLS_RSA_WITH_DES_CBC_SHA          uint16 = 0x0009
	TLS_RSA_WITH_3DES_EDE_CBC_SHA     uint16 = 0x000A
	TLS_DH_anon_WITH_RC4_128_MD5      uint16 = 0x0018
	TLS_DH_anon_WITH_DES_CBC_SHA      uint16 = 0x001A
	TLS_DH_anon_WITH_3DES_EDE_CBC_SHA uint16 = 0x001B
	TLS_RSA_WITH_AES_128_CBC_SHA      uint16 = 0x002F
	TLS_DH_anon_WITH_AES_128_CBC_SHA  uint16 = 0x0034
	TLS_RSA_WITH_AES_256_CBC_SHA      uint16 = 0x0035
	TLS_DH_anon_WITH_AES_256_CBC_SHA  uint16 = 0x003A
)

var suites = []CipherSuite{
	{TLS_NULL_WITH_NULL_NULL, KeyExchangeNULL, CipherNULL, HashNULL},
	{TLS_RSA_WITH_RC4_128_MD5, KeyExchangeRSA, CipherRC4128, HashMD5},
	{TLS_RSA_WITH_RC4_128_SHA, KeyExchangeRSA, CipherRC4128, HashSHA},
	{TLS_RSA_WITH_DES_CBC_SHA, KeyExchangeRSA, CipherDESCBC, HashSHA},
	{TLS_RSA_WITH_3DES_EDE_CBC_SHA, KeyExchangeRSA, Cipher3DESEDECBC, HashSHA},
	{TLS_DH_anon_WITH_RC4_128_MD5, KeyExchangeDHAnon, CipherRC4128, HashMD5},
	{TLS_DH_anon_WITH_DES_CBC_SHA, KeyExchangeDHAnon, CipherDESCBC, HashSHA},
	{TLS_DH_anon_WITH_3DES_EDE_CBC_SHA, KeyExchangeDHAnon, Cipher3DESEDECBC, HashSHA},
	{TLS_RSA_WITH_AES_128_CBC_SHA, KeyExchangeRSA, CipherAES128CBC, HashSHA},
	{TLS_DH_anon_WITH_AES_128_CBC_SHA, KeyExchangeDHAnon, CipherAES128CBC, HashSHA},
	{TLS_RSA_WITH_AES_256_CBC_SHA, KeyExchangeRSA, CipherAES256CBC, HashSHA},
	{TLS_DH_anon_WITH_AES_256_CBC_SHA, KeyExchangeDHAnon, CipherAES256CBC, HashSHA},
}

var ciphers = []CipherData{
	{CipherNULL, Stream, 0, 0, 0, record.NULL},
	{CipherIDEACBC, Block, 16, 16, 8, record.NULL},
	{CipherRC2CBC40, Block, 5, 16, 0, record.RC2},
	{CipherRC440, Stream, 5, 16, 0, record.RC4},
	{CipherRC4128, Stream, 16, 16, 0, record.RC4},
	{CipherDES40CBC, Block, 5, 8, 8, record.DES},
	{CipherDESCBC, Block, 8, 8, 8, record.DES},
	{Cipher3DESEDECBC, Block, 24, 24, 8, record.TripleDES},
	{CipherAES128CBC, Block, 16, 16, 16, record.AES},
	{CipherAES256CBC, Block, 32, 32, 16, record.AES},
}

// Suites returns a copy of the cipher suite table.
func Suites() []CipherSuite {
	return append([]CipherSuite(nil), suites...)
}

// LookupSuite returns the description of a cipher suite identifier.
func LookupSuite(id uint16) (CipherSuite, error) {
	for _, s := range suites {
		if s.ID == id {
			return s, nil
		}
	}
	return CipherSuite{}, fmt.Errorf("%w: suite: unknown cipher suite 0x%04x", errs.ErrUnsupportedAlgorithm, id)
}

// LookupCipher returns the sizing data of a bulk cipher.
func LookupCipher(c Cipher) (CipherData, error) {
	for _, d := range ciphers {
		if d.Cipher == c {
			return d, nil
		}
	}
	return CipherData{}, fmt.Errorf("%w: suite: unknown cipher %s", errs.ErrUnsupportedAlgorithm, c)
}

// KeyBlockLen returns the number of key block bytes consumed by a cipher and
// MAC hash: two MAC secrets, two write keys and two IVs.
func KeyBlockLen(data CipherData, hash Hash) int {
	return 2 * (hash.Size() + data.KeyMaterial + data.BlockSize)
}

// Keys is a key block split into its per direction parts. All slices alias
// the key block they were split from.
type Keys struct {
	ClientMAC, ServerMAC []byte
	ClientKey, ServerKey []byte
	ClientIV, ServerIV   []byte
}

// Split cuts a key block into the MAC secrets, write keys and IVs, in that
// order with the client part of each pair first.
func Split(data CipherData, hash Hash, keyBlock []byte) (*Keys, error) {
	if need := KeyBlockLen(data, hash); len(keyBlock) < need {
		return nil, fmt.Errorf("%w: suite: key block of %d bytes, need %d", errs.ErrMalformedEncoding, len(keyBlock), need)
	}
	var (
		keys = new(Keys)
		pos  int
	)
	take := func(n int) []byte {
		part := keyBlock[pos : pos+n : pos+n]
		pos += n
		return part
	}
	keys.ClientMAC, keys.ServerMAC = take(hash.Size()), take(hash.Size())
	keys.ClientKey, keys.ServerKey = take(data.KeyMaterial), take(data.KeyMaterial)
	keys.ClientIV, keys.ServerIV = take(data.BlockSize), take(data.BlockSize)
	return keys, nil
}
