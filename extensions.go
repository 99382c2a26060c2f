// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	"golang.org/x/net/idna"

	tlserrors "github.com/nullmacro/tls12hs/errors"
)

// Side identifies which peer sent a message or extension, used by carriers
// that enforce client-only or server-only shapes.
type Side uint8

const (
	SideClient Side = iota
	SideServer
)

// MessageType is the stable wire tag of a handshake message, used by
// extension carriers that are only legal inside certain enclosing messages.
type MessageType uint8

const (
	MessageHelloRequest       MessageType = 0
	MessageClientHello        MessageType = 1
	MessageServerHello        MessageType = 2
	MessageHelloVerifyRequest MessageType = 3
	MessageNewSessionTicket   MessageType = 4
	MessageCertificate        MessageType = 11
	MessageServerKeyExchange  MessageType = 12
	MessageCertificateRequest MessageType = 13
	MessageServerHelloDone    MessageType = 14
	MessageCertificateVerify  MessageType = 15
	MessageClientKeyExchange  MessageType = 16
	MessageFinished           MessageType = 20
	// MessageChangeCipherSpec is a pseudo-tag for internal routing; it is
	// not a handshake-layer type byte (ChangeCipherSpec lives in its own
	// record type) but is numbered here so callers can switch on MessageType
	// uniformly.
	MessageChangeCipherSpec MessageType = 255
)

// Extension codes known to this registry.
const (
	ExtCodeServerName                   uint16 = 0
	ExtCodeStatusRequest                uint16 = 5
	ExtCodeSupportedGroups              uint16 = 10
	ExtCodeECPointFormats                uint16 = 11
	ExtCodeSignatureAlgorithms           uint16 = 13
	ExtCodeUseSRTP                       uint16 = 14
	ExtCodeALPN                          uint16 = 16
	ExtCodeEncryptThenMAC                uint16 = 22
	ExtCodeExtendedMasterSecret          uint16 = 23
	ExtCodeSessionTicket                 uint16 = 35
	ExtCodeSupportedVersions             uint16 = 43
	ExtCodeRenegotiationInfo             uint16 = 65281
)

// Extension is a self-parsing, self-serializing handshake extension
// carrier, dispatched by ExtCode through the registry below.
type Extension interface {
	// Code returns the extension's 16-bit wire code.
	Code() uint16

	// Payload serializes the extension's own body, never the outer 4-byte
	// (code, size) header, which the Extensions container writes. An
	// extension whose logical payload is empty returns (nil, nil); the
	// container decides whether that means "omit entirely" or "write with
	// payload_len=0" based on IsEmptyMarker.
	Payload(side Side) ([]byte, error)

	// IsEmptyMarker reports whether this carrier is a presence-only marker
	// extension (ExtendedMasterSecret, EncryptThenMAC): these are still
	// written on the wire with payload_len=0 even though their payload is
	// empty, unlike other extensions with an incidentally empty payload.
	IsEmptyMarker() bool
}

// extensionDecoder constructs an Extension from r, given the extension's
// declared size. Decoders that read their own internal length prefix consume
// only what that prefix names; DeserializeExtensions checks that exactly
// declaredSize bytes were consumed.
type extensionDecoder func(r *Reader, declaredSize int, side Side, msgType MessageType) (Extension, error)

var extensionRegistry = map[uint16]extensionDecoder{
	ExtCodeServerName:          decodeServerNameIndicator,
	ExtCodeStatusRequest:       decodeCertificateStatusRequest,
	ExtCodeSupportedGroups:     decodeSupportedGroups,
	ExtCodeECPointFormats:      decodeSupportedPointFormats,
	ExtCodeSignatureAlgorithms: decodeSignatureAlgorithms,
	ExtCodeUseSRTP:             decodeSRTPProtectionProfiles,
	ExtCodeALPN:                decodeALPN,
	ExtCodeEncryptThenMAC:      decodeEncryptThenMAC,
	ExtCodeExtendedMasterSecret: decodeExtendedMasterSecret,
	ExtCodeSessionTicket:        decodeSessionTicket,
	ExtCodeSupportedVersions:    decodeSupportedVersions,
	ExtCodeRenegotiationInfo:    decodeRenegotiationInfo,
}

// ExtensionFromCode decodes the extension named by code from r. It does not
// itself check that exactly declaredSize bytes were consumed (carriers with
// an internal length prefix read only what that prefix names);
// DeserializeExtensions performs that check. Codes outside the known registry produce an
// UnknownExtension that retains the declared bytes verbatim but cannot be
// re-serialized.
func ExtensionFromCode(code uint16, r *Reader, declaredSize int, side Side, msgType MessageType) (Extension, error) {
	if dec, ok := extensionRegistry[code]; ok {
		return dec(r, declaredSize, side, msgType)
	}
	body, err := r.GetFixed(declaredSize)
	if err != nil {
		return nil, err
	}
	return &UnknownExtension{code: code, body: body}, nil
}

// UnknownExtension preserves an extension code outside the known registry
// as an opaque byte blob. It is never re-serializable: Payload always fails
// with InvalidState, matching the Non-goal that custom extensions beyond the
// enumerated registry are not re-encodable.
type UnknownExtension struct {
	code uint16
	body []byte
}

func (e *UnknownExtension) Code() uint16 { return e.code }

// Body returns the preserved opaque bytes for inspection.
func (e *UnknownExtension) Body() []byte { return e.body }

func (e *UnknownExtension) Payload(Side) ([]byte, error) {
	return nil, tlserrors.InvalidStatef("extensions: unknown extension 0x%04x cannot be re-serialized", e.code)
}

func (e *UnknownExtension) IsEmptyMarker() bool { return false }

// ServerNameIndicator implements server_name (0).
type ServerNameIndicator struct {
	// Acknowledged is true for a server-sent, zero-length acknowledgement
	// of SNI; HostName is empty in that case.
	Acknowledged bool
	HostName     string
}

func decodeServerNameIndicator(r *Reader, declaredSize int, side Side, _ MessageType) (Extension, error) {
	if declaredSize == 0 {
		if side != SideServer {
			return nil, tlserrors.DecodeErrorf("server_name: zero-length form only valid from server")
		}
		return &ServerNameIndicator{Acknowledged: true}, nil
	}
	list, err := r.GetRange(2, 1, 1, -1)
	if err != nil {
		return nil, err
	}
	lr := NewReader(list)
	var hostName string
	for lr.HasRemaining() {
		nameType, err := lr.GetByte()
		if err != nil {
			return nil, err
		}
		nameBytes, err := lr.GetString(2, 0, -1)
		if err != nil {
			return nil, err
		}
		if nameType != 0 {
			continue
		}
		if hostName != "" {
			return nil, tlserrors.DecodeErrorf("server_name: multiple host_name entries")
		}
		hostName = string(nameBytes)
	}
	if side == SideClient && hostName == "" {
		return nil, tlserrors.DecodeErrorf("server_name: client form must carry exactly one host name")
	}
	if hostName != "" {
		ascii, err := idna.Lookup.ToASCII(hostName)
		if err != nil {
			return nil, tlserrors.DecodeErrorf("server_name: invalid hostname %q: %v", hostName, err)
		}
		hostName = ascii
	}
	return &ServerNameIndicator{HostName: hostName}, nil
}

func (e *ServerNameIndicator) Code() uint16 { return ExtCodeServerName }

func (e *ServerNameIndicator) Payload(side Side) ([]byte, error) {
	if e.Acknowledged || e.HostName == "" {
		return nil, nil
	}
	ascii, err := idna.Lookup.ToASCII(e.HostName)
	if err != nil {
		return nil, tlserrors.InvalidArgumentf("server_name: invalid hostname %q: %v", e.HostName, err)
	}
	w := NewWriter()
	err = w.AppendLengthPrefixed(2, func(list *Writer) {
		list.AppendU8(0) // host_name
		_ = list.AppendLengthValue([]byte(ascii), 2)
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes()
}

// IsEmptyMarker is true for a server's zero-length acknowledgement: it must
// reproduce the wire-present, zero-length entry on re-serialization rather
// than being elided like an incidentally empty, non-marker payload.
func (e *ServerNameIndicator) IsEmptyMarker() bool { return e.Acknowledged }

// CertificateStatusRequest implements status_request (5): OCSP request
// parameters. This core carries the raw responder-ID and extension blocks
// opaquely; OCSP validation itself is out of scope.
type CertificateStatusRequest struct {
	StatusType      uint8
	ResponderIDList []byte
	RequestExt      []byte
}

func decodeCertificateStatusRequest(r *Reader, declaredSize int, side Side, _ MessageType) (Extension, error) {
	if declaredSize == 0 {
		// A legitimately empty body, matching session_ticket's allowance for
		// an empty extension rather than requiring the status_type byte.
		return &CertificateStatusRequest{}, nil
	}
	body, err := r.GetFixed(declaredSize)
	if err != nil {
		return nil, err
	}
	br := NewReader(body)
	statusType, err := br.GetByte()
	if err != nil {
		return nil, err
	}
	if statusType != 1 { // ocsp
		// Unrecognized status type: preserve the remainder opaquely,
		// enforcing nothing beyond the status type byte itself.
		rest, _ := br.GetFixed(br.Remaining())
		return &CertificateStatusRequest{StatusType: statusType, RequestExt: rest}, nil
	}
	responderIDs, err := br.GetRange(2, 1, 0, -1)
	if err != nil {
		return nil, err
	}
	reqExt, err := br.GetRange(2, 1, 0, -1)
	if err != nil {
		return nil, err
	}
	if err := br.RequireEmpty(); err != nil {
		return nil, err
	}
	return &CertificateStatusRequest{StatusType: statusType, ResponderIDList: responderIDs, RequestExt: reqExt}, nil
}

func (e *CertificateStatusRequest) Code() uint16 { return ExtCodeStatusRequest }

// Payload elides only the empty case (zero status_type, nothing after it),
// which is how a zero-length body decodes. An unrecognized status type is
// written back as its type byte followed by the opaque remainder.
func (e *CertificateStatusRequest) Payload(Side) ([]byte, error) {
	if e.StatusType == 0 && len(e.ResponderIDList) == 0 && len(e.RequestExt) == 0 {
		return nil, nil
	}
	w := NewWriter()
	w.AppendU8(e.StatusType)
	if e.StatusType != 1 { // not ocsp
		w.AppendBytes(e.RequestExt)
		return w.Bytes()
	}
	if err := w.AppendLengthValue(e.ResponderIDList, 2); err != nil {
		return nil, err
	}
	if err := w.AppendLengthValue(e.RequestExt, 2); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *CertificateStatusRequest) IsEmptyMarker() bool { return false }

// SupportedGroups implements supported_groups (10).
type SupportedGroups struct {
	Groups []NamedGroup
}

func decodeSupportedGroups(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	raw, err := r.GetRange(2, 2, 1, -1)
	if err != nil {
		return nil, err
	}
	groups := make([]NamedGroup, 0, len(raw)/2)
	rr := NewReader(raw)
	for rr.HasRemaining() {
		v, err := rr.GetUint16()
		if err != nil {
			return nil, err
		}
		groups = append(groups, NamedGroup(v))
	}
	return &SupportedGroups{Groups: groups}, nil
}

func (e *SupportedGroups) Code() uint16 { return ExtCodeSupportedGroups }

func (e *SupportedGroups) Payload(Side) ([]byte, error) {
	w := NewWriter()
	err := w.AppendLengthPrefixed(2, func(b *Writer) {
		for _, g := range e.Groups {
			b.AppendU16(uint16(g))
		}
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *SupportedGroups) IsEmptyMarker() bool { return false }

// DHGroups returns the finite-field DH subset of Groups, in wire order.
func (e *SupportedGroups) DHGroups() []NamedGroup { return e.filter(NamedGroup.IsDH) }

// ECGroups returns the elliptic-curve subset of Groups, in wire order.
func (e *SupportedGroups) ECGroups() []NamedGroup { return e.filter(NamedGroup.IsEC) }

func (e *SupportedGroups) filter(pred func(NamedGroup) bool) []NamedGroup {
	var out []NamedGroup
	for _, g := range e.Groups {
		if pred(g) {
			out = append(out, g)
		}
	}
	return out
}

// SupportedPointFormats implements ec_point_formats (11).
type SupportedPointFormats struct {
	Formats            []uint8
	PrefersCompressed   bool
}

const ecPointFormatUncompressed = 0

func decodeSupportedPointFormats(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	raw, err := r.GetRange(1, 1, 1, -1)
	if err != nil {
		return nil, err
	}
	var haveUncompressed bool
	for _, f := range raw {
		if f == ecPointFormatUncompressed {
			haveUncompressed = true
		}
	}
	if !haveUncompressed {
		return nil, tlserrors.DecodeErrorf("ec_point_formats: uncompressed format must appear")
	}
	return &SupportedPointFormats{
		Formats:           raw,
		PrefersCompressed: raw[0] != ecPointFormatUncompressed,
	}, nil
}

func (e *SupportedPointFormats) Code() uint16 { return ExtCodeECPointFormats }

func (e *SupportedPointFormats) Payload(Side) ([]byte, error) {
	w := NewWriter()
	if err := w.AppendLengthValue(e.Formats, 1); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *SupportedPointFormats) IsEmptyMarker() bool { return false }

// SignatureAlgorithms implements signature_algorithms (13).
type SignatureAlgorithms struct {
	Schemes []SignatureScheme
}

func decodeSignatureAlgorithms(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	raw, err := r.GetRange(2, 2, 1, -1)
	if err != nil {
		return nil, err
	}
	schemes := make([]SignatureScheme, 0, len(raw)/2)
	rr := NewReader(raw)
	for rr.HasRemaining() {
		v, err := rr.GetUint16()
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, SignatureScheme(v))
	}
	return &SignatureAlgorithms{Schemes: schemes}, nil
}

func (e *SignatureAlgorithms) Code() uint16 { return ExtCodeSignatureAlgorithms }

func (e *SignatureAlgorithms) Payload(Side) ([]byte, error) {
	w := NewWriter()
	err := w.AppendLengthPrefixed(2, func(b *Writer) {
		for _, s := range e.Schemes {
			b.AppendU16(uint16(s))
		}
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *SignatureAlgorithms) IsEmptyMarker() bool { return false }

// SRTPProtectionProfile is a 16-bit profile code from RFC 5764 §4.1.2, as
// carried by use_srtp (14). The full profile registry lives at the
// state-machine/record-layer boundary; this core only transports codes.
type SRTPProtectionProfile uint16

const (
	SRTPAES128CMHMACSHA1_80 SRTPProtectionProfile = 0x0001
	SRTPAES128CMHMACSHA1_32 SRTPProtectionProfile = 0x0002
	SRTPNullHMACSHA1_80     SRTPProtectionProfile = 0x0005
	SRTPNullHMACSHA1_32     SRTPProtectionProfile = 0x0006
)

// SRTPProtectionProfiles implements use_srtp (14); this core rejects peers
// that send a non-empty MKI.
type SRTPProtectionProfiles struct {
	Profiles []SRTPProtectionProfile
}

func decodeSRTPProtectionProfiles(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	body, err := r.GetFixed(declaredSize)
	if err != nil {
		return nil, err
	}
	br := NewReader(body)
	raw, err := br.GetRange(2, 2, 1, -1)
	if err != nil {
		return nil, err
	}
	mki, err := br.GetString(1, 0, -1)
	if err != nil {
		return nil, err
	}
	if len(mki) != 0 {
		return nil, tlserrors.DecodeErrorf("use_srtp: MKI must be empty")
	}
	if err := br.RequireEmpty(); err != nil {
		return nil, err
	}
	profiles := make([]SRTPProtectionProfile, 0, len(raw)/2)
	rr := NewReader(raw)
	for rr.HasRemaining() {
		v, err := rr.GetUint16()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, SRTPProtectionProfile(v))
	}
	return &SRTPProtectionProfiles{Profiles: profiles}, nil
}

func (e *SRTPProtectionProfiles) Code() uint16 { return ExtCodeUseSRTP }

func (e *SRTPProtectionProfiles) Payload(Side) ([]byte, error) {
	w := NewWriter()
	err := w.AppendLengthPrefixed(2, func(b *Writer) {
		for _, p := range e.Profiles {
			b.AppendU16(uint16(p))
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.AppendLengthValue(nil, 1); err != nil { // empty MKI
		return nil, err
	}
	return w.Bytes()
}

func (e *SRTPProtectionProfiles) IsEmptyMarker() bool { return false }

// ALPN implements application_layer_protocol_negotiation (16).
type ALPN struct {
	Protocols []string
}

func decodeALPN(r *Reader, declaredSize int, side Side, _ MessageType) (Extension, error) {
	list, err := r.GetRange(2, 1, 1, -1)
	if err != nil {
		return nil, err
	}
	lr := NewReader(list)
	var protocols []string
	for lr.HasRemaining() {
		name, err := lr.GetString(1, 0, -1)
		if err != nil {
			return nil, err
		}
		if len(name) == 0 {
			return nil, tlserrors.DecodeErrorf("alpn: empty protocol name")
		}
		protocols = append(protocols, string(name))
	}
	if side == SideServer && len(protocols) != 1 {
		return nil, tlserrors.DecodeErrorf("alpn: server response must contain exactly one protocol, got %d", len(protocols))
	}
	return &ALPN{Protocols: protocols}, nil
}

func (e *ALPN) Code() uint16 { return ExtCodeALPN }

func (e *ALPN) Payload(side Side) ([]byte, error) {
	if side == SideServer && len(e.Protocols) != 1 {
		return nil, tlserrors.InvalidArgumentf("alpn: server response must contain exactly one protocol, got %d", len(e.Protocols))
	}
	w := NewWriter()
	err := w.AppendLengthPrefixed(2, func(b *Writer) {
		for _, p := range e.Protocols {
			_ = b.AppendLengthValue([]byte(p), 1)
		}
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *ALPN) IsEmptyMarker() bool { return false }

// EncryptThenMAC implements encrypt_then_mac (22): an empty marker.
type EncryptThenMAC struct{}

func decodeEncryptThenMAC(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	if declaredSize != 0 {
		return nil, tlserrors.DecodeErrorf("encrypt_then_mac: expected empty payload, got %d bytes", declaredSize)
	}
	return &EncryptThenMAC{}, nil
}

func (EncryptThenMAC) Code() uint16                   { return ExtCodeEncryptThenMAC }
func (EncryptThenMAC) Payload(Side) ([]byte, error)   { return nil, nil }
func (EncryptThenMAC) IsEmptyMarker() bool            { return true }

// ExtendedMasterSecret implements extended_master_secret (23): an empty
// marker.
type ExtendedMasterSecret struct{}

func decodeExtendedMasterSecret(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	if declaredSize != 0 {
		return nil, tlserrors.DecodeErrorf("extended_master_secret: expected empty payload, got %d bytes", declaredSize)
	}
	return &ExtendedMasterSecret{}, nil
}

func (ExtendedMasterSecret) Code() uint16                 { return ExtCodeExtendedMasterSecret }
func (ExtendedMasterSecret) Payload(Side) ([]byte, error) { return nil, nil }
func (ExtendedMasterSecret) IsEmptyMarker() bool          { return true }

// SessionTicket implements session_ticket (35): an opaque ticket blob,
// client-offered or server-issued depending on side and declared length.
type SessionTicket struct {
	Ticket []byte
}

func decodeSessionTicket(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	body, err := r.GetFixed(declaredSize)
	if err != nil {
		return nil, err
	}
	return &SessionTicket{Ticket: body}, nil
}

func (e *SessionTicket) Code() uint16 { return ExtCodeSessionTicket }

func (e *SessionTicket) Payload(Side) ([]byte, error) {
	if len(e.Ticket) == 0 {
		return nil, nil
	}
	return append([]byte(nil), e.Ticket...), nil
}

func (e *SessionTicket) IsEmptyMarker() bool { return false }

// SupportedVersions implements supported_versions (43). The client form
// carries an ordered list of versions; the server form carries exactly one
// selected version.
type SupportedVersions struct {
	Versions []ProtocolVersion // client form
	Selected ProtocolVersion   // server form
}

func decodeSupportedVersions(r *Reader, declaredSize int, side Side, _ MessageType) (Extension, error) {
	if side == SideServer {
		body, err := r.GetFixed(declaredSize)
		if err != nil {
			return nil, err
		}
		if len(body) != 2 {
			return nil, tlserrors.DecodeErrorf("supported_versions: server form must be exactly 2 bytes")
		}
		return &SupportedVersions{Selected: ProtocolVersionFromUint16(uint16(body[0])<<8 | uint16(body[1]))}, nil
	}
	raw, err := r.GetRange(1, 2, 1, -1)
	if err != nil {
		return nil, err
	}
	versions := make([]ProtocolVersion, 0, len(raw)/2)
	rr := NewReader(raw)
	for rr.HasRemaining() {
		v, err := rr.GetUint16()
		if err != nil {
			return nil, err
		}
		versions = append(versions, ProtocolVersionFromUint16(v))
	}
	return &SupportedVersions{Versions: versions}, nil
}

func (e *SupportedVersions) Code() uint16 { return ExtCodeSupportedVersions }

func (e *SupportedVersions) Payload(side Side) ([]byte, error) {
	w := NewWriter()
	if side == SideServer {
		w.AppendU16(e.Selected.Uint16())
		return w.Bytes()
	}
	err := w.AppendLengthPrefixed(1, func(b *Writer) {
		for _, v := range e.Versions {
			b.AppendU16(v.Uint16())
		}
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *SupportedVersions) IsEmptyMarker() bool { return false }

// RenegotiationExtension implements renegotiation_info (65281): verify-data
// from a prior handshake (empty on an initial handshake).
type RenegotiationExtension struct {
	VerifyData []byte
}

func decodeRenegotiationInfo(r *Reader, declaredSize int, _ Side, _ MessageType) (Extension, error) {
	body, err := r.GetFixed(declaredSize)
	if err != nil {
		return nil, err
	}
	br := NewReader(body)
	data, err := br.GetString(1, 0, -1)
	if err != nil {
		return nil, err
	}
	if err := br.RequireEmpty(); err != nil {
		return nil, err
	}
	return &RenegotiationExtension{VerifyData: data}, nil
}

func (e *RenegotiationExtension) Code() uint16 { return ExtCodeRenegotiationInfo }

func (e *RenegotiationExtension) Payload(Side) ([]byte, error) {
	w := NewWriter()
	if err := w.AppendLengthValue(e.VerifyData, 1); err != nil {
		return nil, err
	}
	return w.Bytes()
}

func (e *RenegotiationExtension) IsEmptyMarker() bool { return false }
