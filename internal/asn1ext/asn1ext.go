// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1ext provides the PKCS#8 ASN.1 structures used to export keys
// and to recognise password protected key blobs.
package asn1ext

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
)

// PrivateKeyInfo is the ASN.1 structure for unencrypted PKCS#8 private keys.
type PrivateKeyInfo struct {
	Version    int
	Algorithm  pkix.AlgorithmIdentifier
	PrivateKey []byte
}

// EncryptedPrivateKeyInfo is the ASN.1 structure for password protected
// PKCS#8 private keys.
type EncryptedPrivateKeyInfo struct {
	Algorithm     pkix.AlgorithmIdentifier
	EncryptedData []byte
}

// ParseEncryptedPrivateKeyInfo decodes a DER EncryptedPrivateKeyInfo,
// rejecting trailing data.
func ParseEncryptedPrivateKeyInfo(der []byte) (*EncryptedPrivateKeyInfo, error) {
	info := new(EncryptedPrivateKeyInfo)
	rest, err := asn1.Unmarshal(der, info)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.New("asn1ext: trailing data after EncryptedPrivateKeyInfo")
	}
	return info, nil
}
