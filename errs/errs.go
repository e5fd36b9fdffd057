// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs defines the failure kinds shared by every package in the
// module. Packages wrap one of these sentinels with a detailed message, so
// callers can classify any failure with errors.Is.
package errs

import "errors"

var (
	// ErrMalformedEncoding is returned for ASN.1 structural violations,
	// truncated buffers and corrupt base64 or PEM input.
	ErrMalformedEncoding = errors.New("malformed encoding")

	// ErrUnsupportedAlgorithm is returned for unknown OIDs, cipher or hash
	// identifiers and unsupported key sizes.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrKeyState is returned when a private operation is requested on a
	// public-only key, or when a released context is reused.
	ErrKeyState = errors.New("invalid key state")

	// ErrArithmeticOverflow is returned when a value does not fit into its
	// destination, an RSA input is not below the modulus, or a modulus is zero.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrVerificationFailure is returned on record MAC or PKCS#1 padding
	// mismatches.
	ErrVerificationFailure = errors.New("verification failure")

	// ErrResourceExhaustion is returned when a requested allocation exceeds
	// the sanity limits of the module.
	ErrResourceExhaustion = errors.New("resource exhaustion")
)
