// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

// PeerKeyCapability describes a peer-presented key (from Certificate or
// ServerKeyExchange) in the shape Policy.CheckPeerKeyAcceptable needs to
// judge it, without this core knowing anything about certificate parsing or
// key-strength scoring.
type PeerKeyCapability struct {
	Auth    AuthMethod
	Group   NamedGroup // set when Auth's key exchange is EC-based
	BitSize int        // set when the key is RSA/FFDHE and bit-size-scored
}

// Policy is the query surface for deciding whether a peer's offered
// versions, ciphersuites, groups, signature schemes, and keys are
// acceptable. It is implemented entirely outside this package, which embeds
// no default policy. No Parse or Serialize function in this package takes
// or queries a Policy; the errors package's PolicyRejectionf builds the
// matching error kind for a caller that does.
type Policy interface {
	// AllowTLS12 reports whether TLS 1.2 may be negotiated at all.
	AllowTLS12() bool

	// AllowDTLS12 reports whether DTLS 1.2 may be negotiated at all.
	AllowDTLS12() bool

	// AcceptableCiphersuite reports whether code may be offered or selected.
	AcceptableCiphersuite(code CiphersuiteCode) bool

	// AcceptableGroup reports whether a named group may be offered or
	// selected for key exchange.
	AcceptableGroup(group NamedGroup) bool

	// AcceptableSignatureScheme reports whether a signature scheme may be
	// offered or selected for CertificateVerify / ServerKeyExchange.
	AcceptableSignatureScheme(scheme SignatureScheme) bool

	// CheckPeerKeyAcceptable reports whether a peer-presented key meets the
	// policy's strength requirements.
	CheckPeerKeyAcceptable(key PeerKeyCapability) bool
}
