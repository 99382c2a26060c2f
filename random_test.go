// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestHelloRandomWithoutTimeInRandom(t *testing.T) {
	got, err := HelloRandom(rand.Reader, func() uint32 { return 0xdeadbeef }, false)
	if err != nil {
		t.Fatalf("HelloRandom: %v", err)
	}
	if got == [32]byte{} {
		t.Fatalf("expected non-zero random output")
	}
}

func TestHelloRandomWithTimeInRandom(t *testing.T) {
	got, err := HelloRandom(rand.Reader, func() uint32 { return 0x01020304 }, true)
	if err != nil {
		t.Fatalf("HelloRandom: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(got[:4], want) {
		t.Fatalf("first 4 bytes = %x, want %x", got[:4], want)
	}
}

// Scenario (f): a fixed 8-byte downgrade canary in the trailing bytes of
// ServerHello.random is recognized; any other trailing bytes are not.
func TestDetectDowngradeSentinel(t *testing.T) {
	tests := []struct {
		name    string
		tail    [8]byte
		want    ProtocolVersion
		present bool
	}{
		{"tls11 canary", [8]byte{'D', 'O', 'W', 'N', 'G', 'R', 'D', 0x01}, TLSv11, true},
		{"tls10 canary", [8]byte{'D', 'O', 'W', 'N', 'G', 'R', 'D', 0x00}, TLSv10, true},
		{"ordinary random tail", [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, ProtocolVersion{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var random [32]byte
			copy(random[24:], tc.tail[:])
			got, ok := DetectDowngradeSentinel(random)
			if ok != tc.present {
				t.Fatalf("present = %v, want %v", ok, tc.present)
			}
			if ok && got != tc.want {
				t.Fatalf("version = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestServerHelloRandomSignalsDowngrade(t *testing.T) {
	sh := &ServerHello{}
	copy(sh.Random[24:], []byte{'D', 'O', 'W', 'N', 'G', 'R', 'D', 0x01})
	v, ok := sh.RandomSignalsDowngrade()
	if !ok || v != TLSv11 {
		t.Fatalf("RandomSignalsDowngrade() = %v, %v", v, ok)
	}
}

func TestDTLSCookieRoundTrip(t *testing.T) {
	secret := []byte("server secret key material")
	identity := []byte("203.0.113.5:443")
	bits := []byte("pretend client hello bits")

	cookie, err := DeriveDTLSCookie(secret, identity, bits)
	if err != nil {
		t.Fatalf("DeriveDTLSCookie: %v", err)
	}
	if len(cookie) != dtlsCookieLen {
		t.Fatalf("len(cookie) = %d, want %d", len(cookie), dtlsCookieLen)
	}

	ok, err := VerifyDTLSCookie(secret, identity, bits, cookie)
	if err != nil {
		t.Fatalf("VerifyDTLSCookie: %v", err)
	}
	if !ok {
		t.Fatalf("expected cookie to verify")
	}

	ok, err = VerifyDTLSCookie(secret, identity, []byte("different bits"), cookie)
	if err != nil {
		t.Fatalf("VerifyDTLSCookie: %v", err)
	}
	if ok {
		t.Fatalf("expected cookie to fail against different client hello bits")
	}
}

func TestDTLSCookieIsDeterministicPureFunction(t *testing.T) {
	secret := []byte("another secret")
	identity := []byte("198.51.100.9:53402")
	bits := []byte("client hello bytes go here")

	a, err := DeriveDTLSCookie(secret, identity, bits)
	if err != nil {
		t.Fatalf("DeriveDTLSCookie: %v", err)
	}
	b, err := DeriveDTLSCookie(secret, identity, bits)
	if err != nil {
		t.Fatalf("DeriveDTLSCookie: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected deterministic output: %x vs %x", a, b)
	}
}
