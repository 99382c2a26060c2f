// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

// CipherAlgo names a bulk cipher + mode, independent of the AEAD/MAC
// implementation that executes it (execution is out of scope for this
// package; see golang.org/x/crypto/chacha20poly1305 for one such AEAD).
type CipherAlgo int

const (
	CipherNone CipherAlgo = iota
	CipherChaCha20Poly1305
	CipherAES128GCM
	CipherAES256GCM
	CipherAES128CBCHMACSHA1
	CipherAES128CBCHMACSHA256
	CipherAES256CBCHMACSHA1
	CipherAES256CBCHMACSHA256
)

func (c CipherAlgo) String() string {
	switch c {
	case CipherChaCha20Poly1305:
		return "CHACHA20_POLY1305"
	case CipherAES128GCM:
		return "AES_128_GCM"
	case CipherAES256GCM:
		return "AES_256_GCM"
	case CipherAES128CBCHMACSHA1:
		return "AES_128_CBC_HMAC_SHA1"
	case CipherAES128CBCHMACSHA256:
		return "AES_128_CBC_HMAC_SHA256"
	case CipherAES256CBCHMACSHA1:
		return "AES_256_CBC_HMAC_SHA1"
	case CipherAES256CBCHMACSHA256:
		return "AES_256_CBC_HMAC_SHA256"
	default:
		return "NONE"
	}
}

// KDFAlgo names the PRF hash a ciphersuite uses for key derivation and the
// Finished verify-data (both computed upstream; this is metadata only).
type KDFAlgo int

const (
	KDFNone KDFAlgo = iota
	KDFSHA1
	KDFSHA256
	KDFSHA384
)

func (k KDFAlgo) String() string {
	switch k {
	case KDFSHA1:
		return "SHA_1"
	case KDFSHA256:
		return "SHA_256"
	case KDFSHA384:
		return "SHA_384"
	default:
		return "NONE"
	}
}

// NonceFormat names the AEAD nonce construction a ciphersuite uses. CBC_MODE
// ciphersuites have no AEAD nonce at all; it is listed for completeness of
// the ciphersuite registry's metadata table.
type NonceFormat int

const (
	NonceFormatNone NonceFormat = iota
	NonceFormatCBCMode
	NonceFormatAEADImplicit4
	NonceFormatAEADXor12
)

// AuthMethod identifies the authentication mechanism a ciphersuite's
// ServerKeyExchange/CertificateVerify pair (if any) relies on. These tags
// are never written on the wire. IMPLICIT marks ciphersuites (static RSA,
// plain PSK) that carry no explicit signature at all.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthRSA
	AuthECDSA
	AuthImplicit
)

func (a AuthMethod) String() string {
	switch a {
	case AuthRSA:
		return "RSA"
	case AuthECDSA:
		return "ECDSA"
	case AuthImplicit:
		return "IMPLICIT"
	default:
		return "NONE"
	}
}

// SignatureScheme is the wire-encoded (signature algorithm, hash) pair used
// by CertificateVerify and the signature_algorithms extension. Values match
// the IANA TLS SignatureScheme registry bit-for-bit.
type SignatureScheme uint16

const (
	SigSchemeNone SignatureScheme = 0x0000

	SigSchemeRSAPKCS1SHA256 SignatureScheme = 0x0401
	SigSchemeRSAPKCS1SHA384 SignatureScheme = 0x0501
	SigSchemeRSAPKCS1SHA512 SignatureScheme = 0x0601

	SigSchemeECDSASHA256 SignatureScheme = 0x0403
	SigSchemeECDSASHA384 SignatureScheme = 0x0503
	SigSchemeECDSASHA512 SignatureScheme = 0x0603

	SigSchemeRSAPSSSHA256 SignatureScheme = 0x0804
	SigSchemeRSAPSSSHA384 SignatureScheme = 0x0805
	SigSchemeRSAPSSSHA512 SignatureScheme = 0x0806

	SigSchemeEd25519 SignatureScheme = 0x0807
	SigSchemeEd448   SignatureScheme = 0x0808

	// Pre-TLS-1.2 legacy schemes, still offered by TLS 1.2 peers for
	// backward-compatible negotiation.
	SigSchemeRSAPKCS1SHA1 SignatureScheme = 0x0201
	SigSchemeECDSASHA1    SignatureScheme = 0x0203
)

var knownSignatureSchemes = map[SignatureScheme]bool{
	SigSchemeRSAPKCS1SHA256: true,
	SigSchemeRSAPKCS1SHA384: true,
	SigSchemeRSAPKCS1SHA512: true,
	SigSchemeECDSASHA256:    true,
	SigSchemeECDSASHA384:    true,
	SigSchemeECDSASHA512:    true,
	SigSchemeRSAPSSSHA256:   true,
	SigSchemeRSAPSSSHA384:   true,
	SigSchemeRSAPSSSHA512:   true,
	SigSchemeEd25519:        true,
	SigSchemeEd448:          true,
	SigSchemeRSAPKCS1SHA1:   true,
	SigSchemeECDSASHA1:      true,
}

// IsKnown reports whether s is one of the signature schemes this package
// recognizes. Unrecognized schemes are still carried on the wire (the
// signature_algorithms extension stores the raw list) but are never
// selected by this core.
func (s SignatureScheme) IsKnown() bool { return knownSignatureSchemes[s] }

// NamedGroup is the wire-encoded group identifier used by supported_groups
// and ServerKeyExchange's ECDH branch. Matches the IANA Supported Groups
// registry; TLS-1.3-only and post-quantum hybrid groups are intentionally
// absent (Non-goal: TLS 1.3).
type NamedGroup uint16

const (
	GroupNone NamedGroup = 0

	GroupSECP256R1     NamedGroup = 23
	GroupSECP384R1     NamedGroup = 24
	GroupSECP521R1     NamedGroup = 25
	GroupBrainpool256  NamedGroup = 26
	GroupBrainpool384  NamedGroup = 27
	GroupBrainpool512  NamedGroup = 28
	GroupX25519        NamedGroup = 29

	GroupFFDHE2048 NamedGroup = 256
	GroupFFDHE3072 NamedGroup = 257
	GroupFFDHE4096 NamedGroup = 258
	GroupFFDHE6144 NamedGroup = 259
	GroupFFDHE8192 NamedGroup = 260
)

// IsDH reports whether g is a finite-field Diffie-Hellman group.
func (g NamedGroup) IsDH() bool {
	return g >= GroupFFDHE2048 && g <= GroupFFDHE8192
}

// IsEC reports whether g is an elliptic-curve group.
func (g NamedGroup) IsEC() bool {
	switch g {
	case GroupSECP256R1, GroupSECP384R1, GroupSECP521R1,
		GroupBrainpool256, GroupBrainpool384, GroupBrainpool512, GroupX25519:
		return true
	default:
		return false
	}
}

// KexAlgo identifies the key-exchange branch a ciphersuite negotiates,
// selecting which shape ServerKeyExchange/ClientKeyExchange take.
// ECDHEPSK is supplemented alongside the plain PSK tag: Botan's
// Kex_Algo enumerates it separately from static PSK, and this core's
// ServerKeyExchange/ClientKeyExchange shapes already describe "PSK
// variants" (plural).
type KexAlgo int

const (
	KexNone KexAlgo = iota
	KexStaticRSA
	KexDH
	KexECDH
	KexCECPQ1
	KexPSK
	KexECDHEPSK
)

func (k KexAlgo) String() string {
	switch k {
	case KexStaticRSA:
		return "STATIC_RSA"
	case KexDH:
		return "DH"
	case KexECDH:
		return "ECDH"
	case KexCECPQ1:
		return "CECPQ1"
	case KexPSK:
		return "PSK"
	case KexECDHEPSK:
		return "ECDHE_PSK"
	default:
		return "NONE"
	}
}

// IsPSK reports whether k is one of the PSK key-exchange variants.
func (k KexAlgo) IsPSK() bool {
	return k == KexPSK || k == KexECDHEPSK
}

// CiphersuiteCode is the 16-bit wire value naming a bundle of
// (key-exchange, authentication, bulk cipher, MAC/PRF).
type CiphersuiteCode uint16

// CiphersuiteInfo is the decoded algorithm tuple a ciphersuite code names.
type CiphersuiteInfo struct {
	Kex    KexAlgo
	Auth   AuthMethod
	Cipher CipherAlgo
	KDF    KDFAlgo
	Nonce  NonceFormat
}

// ciphersuiteRegistry maps the TLS 1.2 ciphersuite codes this core
// recognizes to their algorithm tuple, keeping cipher suite metadata
// independent of the cipher implementation itself.
var ciphersuiteRegistry = map[CiphersuiteCode]CiphersuiteInfo{
	0x002F: {KexStaticRSA, AuthImplicit, CipherAES128CBCHMACSHA1, KDFSHA256, NonceFormatCBCMode},
	0x0035: {KexStaticRSA, AuthImplicit, CipherAES256CBCHMACSHA1, KDFSHA256, NonceFormatCBCMode},
	0x003C: {KexStaticRSA, AuthImplicit, CipherAES128CBCHMACSHA256, KDFSHA256, NonceFormatCBCMode},
	0x003D: {KexStaticRSA, AuthImplicit, CipherAES256CBCHMACSHA256, KDFSHA256, NonceFormatCBCMode},
	0x009C: {KexStaticRSA, AuthImplicit, CipherAES128GCM, KDFSHA256, NonceFormatAEADImplicit4},
	0x009D: {KexStaticRSA, AuthImplicit, CipherAES256GCM, KDFSHA384, NonceFormatAEADImplicit4},
	0xC013: {KexECDH, AuthRSA, CipherAES128CBCHMACSHA1, KDFSHA256, NonceFormatCBCMode},
	0xC014: {KexECDH, AuthRSA, CipherAES256CBCHMACSHA1, KDFSHA256, NonceFormatCBCMode},
	0xC009: {KexECDH, AuthECDSA, CipherAES128CBCHMACSHA1, KDFSHA256, NonceFormatCBCMode},
	0xC00A: {KexECDH, AuthECDSA, CipherAES256CBCHMACSHA1, KDFSHA256, NonceFormatCBCMode},
	0xC02B: {KexECDH, AuthECDSA, CipherAES128GCM, KDFSHA256, NonceFormatAEADImplicit4},
	0xC02C: {KexECDH, AuthECDSA, CipherAES256GCM, KDFSHA384, NonceFormatAEADImplicit4},
	0xC02F: {KexECDH, AuthRSA, CipherAES128GCM, KDFSHA256, NonceFormatAEADImplicit4},
	0xC030: {KexECDH, AuthRSA, CipherAES256GCM, KDFSHA384, NonceFormatAEADImplicit4},
	0xCCA8: {KexECDH, AuthRSA, CipherChaCha20Poly1305, KDFSHA256, NonceFormatAEADXor12},
	0xCCA9: {KexECDH, AuthECDSA, CipherChaCha20Poly1305, KDFSHA256, NonceFormatAEADXor12},
}

// Lookup returns the algorithm tuple for code, and whether it is recognized.
// An unrecognized code is not an error at this layer: the policy layer
// (component G) decides whether to accept an offered ciphersuite it cannot
// even name.
func (c CiphersuiteCode) Lookup() (CiphersuiteInfo, bool) {
	info, ok := ciphersuiteRegistry[c]
	return info, ok
}
