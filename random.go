// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	tlserrors "github.com/nullmacro/tls12hs/errors"
)

// TimeSource returns the current time as a 32-bit GMT Unix timestamp, the
// shape hello_random embeds when time-in-random is requested. It is a
// callback rather than a direct call to the system clock so tests can
// supply a fixed value, to allow deterministic testing.
type TimeSource func() uint32

// HelloRandom builds the 32-byte random field carried by ClientHello and
// ServerHello. When timeInRandom is true the first 4 bytes are now(), a GMT
// Unix timestamp, and the remaining 28 bytes come from rng; otherwise all 32
// bytes come from rng.
func HelloRandom(rng io.Reader, now TimeSource, timeInRandom bool) ([32]byte, error) {
	var out [32]byte
	start := 0
	if timeInRandom {
		binary.BigEndian.PutUint32(out[0:4], now())
		start = 4
	}
	if _, err := io.ReadFull(rng, out[start:]); err != nil {
		return out, tlserrors.InvalidStatef("random: failed to read %d random bytes: %v", len(out)-start, err)
	}
	return out, nil
}

// downgradeCanaryTLS11 and downgradeCanaryTLS10 are the fixed 8-byte
// sentinels a TLS-1.3-capable server embeds in the last 8 bytes of
// ServerHello.random when it negotiates down to an earlier version (RFC
// 8446 §4.1.3). Recognizing either one is the extent of downgrade handling
// this core performs; reacting to it belongs to the state machine.
var (
	downgradeCanaryTLS11 = [8]byte{'D', 'O', 'W', 'N', 'G', 'R', 'D', 0x01}
	downgradeCanaryTLS10 = [8]byte{'D', 'O', 'W', 'N', 'G', 'R', 'D', 0x00}
)

// DetectDowngradeSentinel inspects the last 8 bytes of a ServerHello random
// for a downgrade canary, returning the version it names. Any other trailing
// 8 bytes, including an all-zero or genuinely random tail, report absent.
func DetectDowngradeSentinel(random [32]byte) (ProtocolVersion, bool) {
	var tail [8]byte
	copy(tail[:], random[24:32])
	switch tail {
	case downgradeCanaryTLS11:
		return TLSv11, true
	case downgradeCanaryTLS10:
		return TLSv10, true
	default:
		return ProtocolVersion{}, false
	}
}

// dtlsCookieLen is the HMAC-SHA256-derived cookie length this core issues.
// RFC 6347 §4.2.1 permits up to 255 bytes; 32 gives the verifier comfortable
// collision resistance without padding the HelloVerifyRequest.
const dtlsCookieLen = 32

// DeriveDTLSCookie computes a DTLS HelloVerifyRequest cookie as a pure,
// stateless function of the server's secret key, the client's identity
// (typically its UDP source address), and the client hello bits (everything
// in the ClientHello except the cookie field itself, per
// ClientHello.CookieInputBits). Recomputing the cookie from a returned
// ClientHello and comparing it to the cookie the client echoed back is how a
// server verifies the round trip without retaining per-client state (RFC
// 6347 §4.2.1).
//
// The secret is never used as the MAC key directly: HKDF-Expand first binds
// it to the fixed "dtls cookie v1" label, so a secret rotation schedule shared
// with other derivations (e.g. ticket keys) cannot leak cookie-forging
// power from an unrelated derivation.
func DeriveDTLSCookie(secret, clientIdentity, clientHelloBits []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, tlserrors.InvalidArgumentf("random: DeriveDTLSCookie requires a non-empty secret")
	}
	subkey := make([]byte, sha256.Size)
	kdf := hkdf.Expand(sha256.New, secret, []byte("dtls cookie v1"))
	if _, err := io.ReadFull(kdf, subkey); err != nil {
		return nil, tlserrors.InvalidStatef("random: cookie subkey derivation failed: %v", err)
	}
	mac := hmac.New(sha256.New, subkey)
	mac.Write(clientIdentity)
	mac.Write(clientHelloBits)
	return mac.Sum(nil)[:dtlsCookieLen], nil
}

// VerifyDTLSCookie recomputes the cookie for (clientIdentity,
// clientHelloBits) under secret and reports whether it matches cookie,
// using a constant-time comparison.
func VerifyDTLSCookie(secret, clientIdentity, clientHelloBits, cookie []byte) (bool, error) {
	want, err := DeriveDTLSCookie(secret, clientIdentity, clientHelloBits)
	if err != nil {
		return false, err
	}
	return hmac.Equal(want, cookie), nil
}
