// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import "fmt"

// ProtocolVersion is a (major, minor) pair as carried on the wire in every
// handshake message that names a version: ClientHello.legacy_version,
// ServerHello.legacy_version / selected_version, and the DTLS
// HelloVerifyRequest.server_version.
type ProtocolVersion struct {
	Major, Minor uint8
}

// Wire-recognized versions. TLS_V12 and DTLS_V12 are the versions this core
// is built for. The message parsers record whatever version pair a peer
// sent and do not reject other values.
var (
	TLSv12  = ProtocolVersion{3, 3}
	DTLSv12 = ProtocolVersion{254, 253}

	// TLSv11 and TLSv10 are never negotiated by this core; they exist only
	// as the return values of downgrade sentinel detection (see random.go).
	TLSv11 = ProtocolVersion{3, 2}
	TLSv10 = ProtocolVersion{3, 1}
)

// Uint16 returns the big-endian wire encoding of the version.
func (v ProtocolVersion) Uint16() uint16 {
	return uint16(v.Major)<<8 | uint16(v.Minor)
}

// ProtocolVersionFromUint16 decodes the wire encoding of a version.
func ProtocolVersionFromUint16(v uint16) ProtocolVersion {
	return ProtocolVersion{uint8(v >> 8), uint8(v)}
}

// IsDatagram reports whether v is a DTLS version. DTLS versions are encoded
// as the one's complement of the DTLS version number (1.2 becomes 254.253),
// so major bytes in the DTLS range (254) distinguish them from the TLS range
// (3).
func (v ProtocolVersion) IsDatagram() bool {
	return v.Major == DTLSv12.Major
}

func (v ProtocolVersion) String() string {
	switch v {
	case TLSv12:
		return "TLS 1.2"
	case TLSv11:
		return "TLS 1.1"
	case TLSv10:
		return "TLS 1.0"
	case DTLSv12:
		return "DTLS 1.2"
	default:
		return fmt.Sprintf("0x%02x%02x", v.Major, v.Minor)
	}
}
