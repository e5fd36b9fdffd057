// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsa

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/dark-bio/tlsdecrypt-go/bignum"
	"github.com/dark-bio/tlsdecrypt-go/errs"
	"github.com/dark-bio/tlsdecrypt-go/internal/asn1ext"
	"github.com/dark-bio/tlsdecrypt-go/pem"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var oidRSAEncryption = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

// addInteger appends a non-negative INTEGER in minimal DER form.
func addInteger(b *cryptobyte.Builder, x *bignum.Int) {
	b.AddASN1(cbasn1.INTEGER, func(b *cryptobyte.Builder) {
		raw := x.Bytes()
		if len(raw) == 0 || raw[0]&0x80 != 0 {
			b.AddUint8(0)
		}
		b.AddBytes(raw)
	})
}

// MarshalPKCS1 serializes a private key into a PKCS#1 RSAPrivateKey.
func (k *Key) MarshalPKCS1() ([]byte, error) {
	if err := k.usable(); err != nil {
		return nil, err
	}
	if !k.private {
		return nil, fmt.Errorf("%w: rsa: cannot marshal public key as private", errs.ErrKeyState)
	}
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0)
		for _, x := range []*bignum.Int{k.N, k.E, k.D, k.P, k.Q, k.Dmp1, k.Dmq1, k.Iqmp} {
			addInteger(b, x)
		}
	})
	return b.Bytes()
}

// MarshalPKCS8 serializes a private key into an unencrypted PKCS#8
// PrivateKeyInfo.
func (k *Key) MarshalPKCS8() ([]byte, error) {
	inner, err := k.MarshalPKCS1()
	if err != nil {
		return nil, err
	}
	info := asn1ext.PrivateKeyInfo{
		Version: 0,
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm:  oidRSAEncryption,
			Parameters: asn1.NullRawValue,
		},
		PrivateKey: inner,
	}
	der, err := asn1.Marshal(info)
	if err != nil {
		panic(err) // cannot fail
	}
	return der, nil
}

// MarshalPEM serializes a private key into a PKCS#8 PEM block.
func (k *Key) MarshalPEM() (string, error) {
	blob, err := k.MarshalPKCS8()
	if err != nil {
		return "", err
	}
	return string(pem.Encode(pem.KindPKCS8, blob)), nil
}
