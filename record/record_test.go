// tlsdecrypt-go: passive TLS session key recovery
// Copyright 2025 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package record

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dark-bio/tlsdecrypt-go/digest"
	"github.com/dark-bio/tlsdecrypt-go/errs"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}

// Tests every bulk cipher against known answers.
func TestCipherVectors(t *testing.T) {
	// Generated with:
	//   printf 'sixteen byte msg' | openssl enc -<cipher> -K $KEY -iv $IV -nopad
	// The second AES block repeats the message. The 40 bit RC2 vector comes from
	// EVP rc2-ecb with the key length set to 5 bytes.
	msg := []byte("sixteen byte msg")

	tests := []struct {
		name  string
		alg   Algorithm
		key   string
		iv    string
		plain []byte
		want  string
	}{
		{
			name:  "aes-256-cbc",
			alg:   AES,
			key:   "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
			iv:    "0f0e0d0c0b0a09080706050403020100",
			plain: append(append([]byte{}, msg...), msg...),
			want:  "608ad77b910d8ea2e486cf77d6c84096c7e102767cc37f89610e1dba7331a6d3",
		},
		{
			name:  "des-cbc",
			alg:   DES,
			key:   "0123456789abcdef",
			iv:    "0011223344556677",
			plain: msg,
			want:  "a05d48feb94136ccda02e1c4f606b1bf",
		},
		{
			name:  "des-ede3-cbc",
			alg:   TripleDES,
			key:   "0123456789abcdeffedcba987654321089abcdef01234567",
			iv:    "0011223344556677",
			plain: msg,
			want:  "2019d9f2dabdca4497929f05d4d88bd1",
		},
		{
			name:  "rc4",
			alg:   RC4,
			key:   "000102030405060708090a0b0c0d0e0f",
			plain: msg,
			want:  "9af5388d228777ec64a2e3a32eb05928",
		},
		{
			name:  "rc2-ecb",
			alg:   RC2,
			key:   "000102030405060708090a0b0c0d0e0f",
			plain: msg,
			want:  "3a31f49d2cb9834ddf8517f6e9e4e7f3",
		},
		{
			name:  "rc2-ecb-40",
			alg:   RC2,
			key:   "0102030405",
			plain: msg,
			want:  "664aaa4dc86843a67e6e6261426da820",
		},
		{
			name:  "null",
			alg:   NULL,
			plain: msg,
			want:  hex.EncodeToString(msg),
		},
	}
	for _, tt := range tests {
		var iv []byte
		if tt.iv != "" {
			iv = mustHex(t, tt.iv)
		}
		c, err := NewCipher(tt.alg, iv, mustHex(t, tt.key))
		if err != nil {
			t.Fatalf("%s: failed to create cipher: %v", tt.name, err)
		}
		have := make([]byte, len(tt.plain))
		if err := c.Encrypt(have, tt.plain); err != nil {
			t.Fatalf("%s: failed to encrypt: %v", tt.name, err)
		}
		if got := hex.EncodeToString(have); got != tt.want {
			t.Errorf("%s: ciphertext mismatch: have %s, want %s", tt.name, got, tt.want)
		}
		// Decrypt in place with the independent decryption state
		if err := c.Decrypt(have, have); err != nil {
			t.Fatalf("%s: failed to decrypt: %v", tt.name, err)
		}
		if !bytes.Equal(have, tt.plain) {
			t.Errorf("%s: roundtrip mismatch: have %x, want %x", tt.name, have, tt.plain)
		}
	}
}

// Tests that CBC and stream states carry over between calls.
func TestCipherChaining(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	iv := mustHex(t, "0f0e0d0c0b0a09080706050403020100")
	msg := []byte("sixteen byte msg")

	c, err := NewCipher(AES, iv, key)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}
	out := make([]byte, 32)
	if err := c.Encrypt(out[:16], msg); err != nil {
		t.Fatalf("failed to encrypt first block: %v", err)
	}
	if err := c.Encrypt(out[16:], msg); err != nil {
		t.Fatalf("failed to encrypt second block: %v", err)
	}
	want := "608ad77b910d8ea2e486cf77d6c84096c7e102767cc37f89610e1dba7331a6d3"
	if have := hex.EncodeToString(out); have != want {
		t.Errorf("chained ciphertext mismatch: have %s, want %s", have, want)
	}

	r, err := NewCipher(RC4, nil, key[:16])
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}
	stream := make([]byte, 16)
	for i := 0; i < 16; i += 4 {
		if err := r.Encrypt(stream[i:i+4], msg[i:i+4]); err != nil {
			t.Fatalf("failed to encrypt fragment: %v", err)
		}
	}
	if have, want := hex.EncodeToString(stream), "9af5388d228777ec64a2e3a32eb05928"; have != want {
		t.Errorf("fragmented stream mismatch: have %s, want %s", have, want)
	}
}

// Tests the cipher construction and usage failures.
func TestCipherFailures(t *testing.T) {
	key16 := make([]byte, 16)
	iv16 := make([]byte, 16)

	if _, err := NewCipher(AES, iv16, make([]byte, 20)); !errors.Is(err, errs.ErrUnsupportedAlgorithm) {
		t.Errorf("20 byte AES key: have %v, want %v", err, errs.ErrUnsupportedAlgorithm)
	}
	if _, err := NewCipher(AES, iv16[:8], key16); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("short IV: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	if _, err := NewCipher(DES, iv16[:8], key16); !errors.Is(err, errs.ErrUnsupportedAlgorithm) {
		t.Errorf("16 byte DES key: have %v, want %v", err, errs.ErrUnsupportedAlgorithm)
	}
	if _, err := NewCipher(RC2, nil, nil); !errors.Is(err, errs.ErrUnsupportedAlgorithm) {
		t.Errorf("empty RC2 key: have %v, want %v", err, errs.ErrUnsupportedAlgorithm)
	}
	if _, err := NewCipher(Algorithm(42), nil, key16); !errors.Is(err, errs.ErrUnsupportedAlgorithm) {
		t.Errorf("unknown cipher: have %v, want %v", err, errs.ErrUnsupportedAlgorithm)
	}

	c, err := NewCipher(AES, iv16, key16)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}
	if err := c.Encrypt(make([]byte, 15), make([]byte, 15)); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("partial block: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	if err := c.Decrypt(make([]byte, 16), make([]byte, 32)); !errors.Is(err, errs.ErrArithmeticOverflow) {
		t.Errorf("short output: have %v, want %v", err, errs.ErrArithmeticOverflow)
	}
	c.Close()
	if !c.Closed() {
		t.Errorf("cipher not marked closed")
	}
	if err := c.Decrypt(make([]byte, 16), make([]byte, 16)); !errors.Is(err, errs.ErrKeyState) {
		t.Errorf("closed cipher: have %v, want %v", err, errs.ErrKeyState)
	}
}

// Key material shared by the record tests, derived by the TLS 1.0 PRF for an
// AES128-SHA session. Layout: client MAC, server MAC, client key, server key,
// client IV, server IV.
const testKeyBlock = "" +
	"fb31f18118f48be778fa72c4072ce3b99659ac5cdab21f03dd8fcf008975" +
	"c0f77769c4902e19efb29ed10b70c197484703cf92f3707b028a012944bd" +
	"181527937e696e813510465dee6ee2436c374a1909f500e7c9948ba4c6ff" +
	"7016698e713955129346950ada60"

// Tests decrypting and authenticating a captured application data record in
// each direction.
func TestDecryptRecord(t *testing.T) {
	kb := mustHex(t, testKeyBlock)

	tests := []struct {
		dir     Direction
		seq     uint64
		key, iv []byte
		record  string
		payload string
	}{
		{
			dir:     Uplink,
			seq:     0,
			key:     kb[40:56],
			iv:      kb[72:88],
			record:  "36681de9182b6b15cac3315123e2098692a49783e5245b17dfd7cdcdf494b782a8d8d5194ca39f3f5e7ec9f1aaad1c3e",
			payload: "GET / HTTP/1.0\r\n\r\n",
		},
		{
			dir:     Downlink,
			seq:     1,
			key:     kb[56:72],
			iv:      kb[88:104],
			record:  "24bc423743bb82b843b8dc6c665ce7a29dc421bbf3b6f8e9a95b142e5ae3bcc728f3b3e22cbff7adf81e3d536ce04007",
			payload: "HTTP/1.0 200 OK\r\n\r\nhello",
		},
	}
	for _, tt := range tests {
		c, err := NewCipher(AES, tt.iv, tt.key)
		if err != nil {
			t.Fatalf("%s: failed to create cipher: %v", tt.dir, err)
		}
		plain := mustHex(t, tt.record)
		if err := c.Decrypt(plain, plain); err != nil {
			t.Fatalf("%s: failed to decrypt: %v", tt.dir, err)
		}
		pad := int(plain[len(plain)-1]) + 1
		body := plain[:len(plain)-pad]

		have, err := VerifyMAC(tt.dir, digest.SHA1, kb, 0x17, tt.seq, len(tt.payload), body)
		if err != nil {
			t.Fatalf("%s: failed to verify MAC: %v", tt.dir, err)
		}
		if string(have) != tt.payload {
			t.Errorf("%s: payload mismatch: have %q, want %q", tt.dir, have, tt.payload)
		}
		// The wrong sequence number or direction must not verify
		if _, err := VerifyMAC(tt.dir, digest.SHA1, kb, 0x17, tt.seq+1, len(tt.payload), body); !errors.Is(err, errs.ErrVerificationFailure) {
			t.Errorf("%s: wrong sequence: have %v, want %v", tt.dir, err, errs.ErrVerificationFailure)
		}
		other := Uplink
		if tt.dir == Uplink {
			other = Downlink
		}
		if _, err := VerifyMAC(other, digest.SHA1, kb, 0x17, tt.seq, len(tt.payload), body); !errors.Is(err, errs.ErrVerificationFailure) {
			t.Errorf("%s: wrong direction: have %v, want %v", tt.dir, err, errs.ErrVerificationFailure)
		}
	}
}

// Tests the MAC computation and verification failures.
func TestMACFailures(t *testing.T) {
	kb := mustHex(t, testKeyBlock)

	want := "f00407a41feb32303d3c7af94fcab1f6761b9037"
	mac, err := ComputeMAC(Uplink, digest.SHA1, kb, 0x17, 0, []byte("GET / HTTP/1.0\r\n\r\n"))
	if err != nil {
		t.Fatalf("failed to compute MAC: %v", err)
	}
	if have := hex.EncodeToString(mac); have != want {
		t.Errorf("MAC mismatch: have %s, want %s", have, want)
	}
	if _, err := ComputeMAC(Uplink, digest.SHA1, kb[:39], 0x17, 0, nil); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("short key block: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	if _, err := ComputeMAC(Direction(3), digest.SHA1, kb, 0x17, 0, nil); !errors.Is(err, errs.ErrKeyState) {
		t.Errorf("unknown direction: have %v, want %v", err, errs.ErrKeyState)
	}
	if _, err := VerifyMAC(Uplink, digest.Algorithm(42), kb, 0x17, 0, 0, make([]byte, 20)); !errors.Is(err, errs.ErrUnsupportedAlgorithm) {
		t.Errorf("unknown MAC: have %v, want %v", err, errs.ErrUnsupportedAlgorithm)
	}
	if _, err := VerifyMAC(Uplink, digest.SHA1, kb, 0x17, 0, 5, make([]byte, 24)); !errors.Is(err, errs.ErrMalformedEncoding) {
		t.Errorf("truncated record: have %v, want %v", err, errs.ErrMalformedEncoding)
	}
	body := append([]byte("GET / HTTP/1.0\r\n\r\n"), mac...)
	body[0] ^= 1
	if _, err := VerifyMAC(Uplink, digest.SHA1, kb, 0x17, 0, 18, body); !errors.Is(err, errs.ErrVerificationFailure) {
		t.Errorf("tampered payload: have %v, want %v", err, errs.ErrVerificationFailure)
	}
}
