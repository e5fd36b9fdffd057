// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/bignum"
	"github.com/dark-bio/tlsdecrypt-go/der"
	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/dark-bio/tlsdecrypt-go/internal/asn1ext"
	"github.com/dark-bio/tlsdecrypt-go/pem"
)

// ImportPrivateKey parses a DER private key, trying the PKCS#8 wrapper first
// and falling back to a bare PKCS#1 RSAPrivateKey. Encrypted PKCS#8 blobs are
// recognised but not supported.
func ImportPrivateKey(buf []byte, password *string) (*Key, error) {
	key, err := ImportPKCS8(buf)
	if err == nil {
		return key, nil
	}
	if errors.Is(err, errs.ErrUnsupportedAlgorithm) {
		return nil, err
	}
	if oid, ok := encryptedPKCS8Algorithm(buf); ok {
		return nil, fmt.Errorf("%w: rsa: encrypted PKCS#8 (%s) not supported", errs.ErrUnsupportedAlgorithm, oid)
	}
	if password != nil {
		return nil, fmt.Errorf("%w: rsa: encrypted PKCS#8 not supported", errs.ErrUnsupportedAlgorithm)
	}
	return ImportPKCS1(buf)
}

// ImportPKCS8 parses an unencrypted PKCS#8 PrivateKeyInfo wrapping an RSA
// key. The version must be zero and the algorithm must be rsaEncryption.
func ImportPKCS8(buf []byte) (*Key, error) {
	outer := der.NewReader(buf)

	seq, err := outer.ReadSequence()
	if err != nil {
		return nil, err
	}
	version, err := seq.ReadInteger()
	if err != nil {
		return nil, err
	}
	if version.CmpSmall(0) != 0 {
		return nil, fmt.Errorf("%w: rsa: not PKCS#8, version %s", errs.ErrMalformedEncoding, version)
	}
	alg, err := seq.ReadSequence()
	if err != nil {
		return nil, err
	}
	oid, err := alg.ReadOID()
	if err != nil {
		return nil, err
	}
	if !oid.Equal(der.OIDRSAEncryption) {
		return nil, fmt.Errorf("%w: rsa: private key algorithm %s", errs.ErrUnsupportedAlgorithm, oid)
	}
	body, err := seq.ReadOctetString()
	if err != nil {
		return nil, err
	}
	if err := outer.Finish(); err != nil {
		return nil, err
	}
	return ImportPKCS1(body)
}

// ImportPKCS1 parses a PKCS#1 RSAPrivateKey: a SEQUENCE of exactly nine
// INTEGERs starting with a zero version.
func ImportPKCS1(buf []byte) (*Key, error) {
	outer := der.NewReader(buf)

	seq, err := outer.ReadSequence()
	if err != nil {
		return nil, err
	}
	if err := outer.Finish(); err != nil {
		return nil, err
	}
	version, err := seq.ReadInteger()
	if err != nil {
		return nil, err
	}
	if version.CmpSmall(0) != 0 {
		return nil, fmt.Errorf("%w: rsa: unsupported RSAPrivateKey version %s", errs.ErrMalformedEncoding, version)
	}
	var fields [8]*bignum.Int
	for i := range fields {
		if fields[i], err = seq.ReadInteger(); err != nil {
			return nil, err
		}
	}
	if err := seq.Finish(); err != nil {
		return nil, err
	}
	key := &Key{
		N:       fields[0],
		E:       fields[1],
		D:       fields[2],
		P:       fields[3],
		Q:       fields[4],
		Dmp1:    fields[5],
		Dmq1:    fields[6],
		Iqmp:    fields[7],
		private: true,
	}
	if key.N.IsZero() || key.P.IsZero() || key.Q.IsZero() {
		return nil, fmt.Errorf("%w: rsa: zero modulus or prime", errs.ErrMalformedEncoding)
	}
	return key, nil
}

// encryptedPKCS8Algorithm reports whether buf is shaped like a PKCS#8
// EncryptedPrivateKeyInfo and returns its encryption algorithm.
func encryptedPKCS8Algorithm(buf []byte) (asn1.ObjectIdentifier, bool) {
	info, err := asn1ext.ParseEncryptedPrivateKeyInfo(buf)
	if err != nil {
		return nil, false
	}
	return info.Algorithm.Algorithm, true
}

// ParsePEM locates a PEM private key block in buf and imports it.
func ParsePEM(buf []byte) (*Key, error) {
	_, blob, err := pem.FindKey(buf)
	if err != nil {
		return nil, err
	}
	return ImportPrivateKey(blob, nil)
}

// MustParsePEM locates a PEM private key block in buf and imports it.
// It panics if the parsing fails.
func MustParsePEM(buf []byte) *Key {
	key, err := ParsePEM(buf)
	if err != nil {
		panic("rsa: " + err.Error())
	}
	return key
}

// Parse imports a private key that is either PEM wrapped or raw DER.
func Parse(buf []byte, password *string) (*Key, error) {
	if _, blob, err := pem.FindKey(buf); err == nil {
		return ImportPrivateKey(blob, password)
	}
	return ImportPrivateKey(buf, password)
}
