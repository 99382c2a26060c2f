// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	"bytes"
	"testing"

	tlserrors "github.com/nullmacro/tls12hs/errors"
)

// Scenario (d): an extension code outside the known registry preserves its
// declared bytes opaquely and cannot be re-serialized.
func TestUnknownExtensionPreservedButNotReserializable(t *testing.T) {
	body := []byte{
		0x00, 0x08, // outer length = 8
		0xff, 0xaa, // unknown code
		0x00, 0x04, // declared size = 4
		0xde, 0xad, 0xbe, 0xef,
	}
	r := NewReader(body)
	ex, err := DeserializeExtensions(r, SideClient, MessageClientHello)
	if err != nil {
		t.Fatalf("DeserializeExtensions: %v", err)
	}
	if ex.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ex.Len())
	}
	e, ok := ex.Get(0xffaa)
	if !ok {
		t.Fatalf("extension 0xffaa not found")
	}
	unk, ok := e.(*UnknownExtension)
	if !ok {
		t.Fatalf("expected *UnknownExtension, got %T", e)
	}
	if !bytes.Equal(unk.Body(), []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("Body() = %x", unk.Body())
	}
	if _, err := ex.Serialize(SideClient); err == nil {
		t.Fatalf("expected Serialize to fail on an unknown extension")
	} else if !tlserrors.IsInvalidState(err) {
		t.Fatalf("expected InvalidState, got %v", err)
	}
}

// Property 4: duplicate extension codes in one block are a fatal decode
// error, regardless of whether the payloads happen to match.
func TestDuplicateExtensionRejected(t *testing.T) {
	// A well-formed server_name entry, so the only fault is the repetition.
	one := extensionTLV(t, 0, []byte{0x00, 0x05, 0x00, 0x00, 0x02, 'e', 'x'})
	body := append([]byte{0x00, byte(len(one) * 2)}, one...)
	body = append(body, one...)
	r := NewReader(body)
	_, err := DeserializeExtensions(r, SideClient, MessageClientHello)
	if err == nil {
		t.Fatalf("expected duplicate-extension error")
	}
	if !tlserrors.IsDecodeError(err) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

// Scenario (e): a server-origin ALPN response whose single protocol entry
// has an empty name fails to decode.
func TestALPNEmptyProtocolNameRejected(t *testing.T) {
	// list length = 1, one entry whose own length prefix is 0.
	payload := []byte{0x00, 0x01, 0x00}
	body := extensionTLV(t, ExtCodeALPN, payload)
	outer := append([]byte{0x00, byte(len(body))}, body...)
	r := NewReader(outer)
	_, err := DeserializeExtensions(r, SideServer, MessageServerHello)
	if err == nil {
		t.Fatalf("expected empty-protocol-name error")
	}
	if !tlserrors.IsDecodeError(err) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

// Property 5: a server-origin ALPN naming two protocols is also rejected.
func TestALPNServerArityRejected(t *testing.T) {
	payload := []byte{
		0x00, 0x06, // list length = 6
		0x02, 'h', '2',
		0x02, 'h', '1',
	}
	body := extensionTLV(t, ExtCodeALPN, payload)
	outer := append([]byte{0x00, byte(len(body))}, body...)
	r := NewReader(outer)
	_, err := DeserializeExtensions(r, SideServer, MessageServerHello)
	if err == nil {
		t.Fatalf("expected arity error")
	}
}

// Property 2: an Extensions container constructed through Add never holds
// duplicate codes, and Types() reflects exactly what was added.
func TestExtensionsUniqueness(t *testing.T) {
	ex := NewExtensions()
	if err := ex.Add(&ExtendedMasterSecret{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ex.Add(&ExtendedMasterSecret{}); err == nil {
		t.Fatalf("expected duplicate Add to fail")
	}
	if len(ex.Types()) != 1 {
		t.Fatalf("Types() = %v, want one entry", ex.Types())
	}
}

// Property 1's stated exception: a container holding only non-marker
// extensions whose payload is incidentally empty serializes to nothing.
func TestExtensionsSerializeElidesEmptyNonMarkerPayload(t *testing.T) {
	ex := NewExtensions()
	if err := ex.Add(&SessionTicket{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	out, err := ex.Serialize(SideClient)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if out != nil {
		t.Fatalf("Serialize() = %x, want nil", out)
	}
}

// An empty-marker extension (ExtendedMasterSecret) still serializes with
// payload_len=0, distinguishing "present but empty" from "absent".
func TestExtensionsSerializeKeepsEmptyMarker(t *testing.T) {
	ex := NewExtensions()
	if err := ex.Add(&ExtendedMasterSecret{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	out, err := ex.Serialize(SideClient)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []byte{0x00, 0x04, 0x00, 0x17, 0x00, 0x00}
	if !bytes.Equal(out, want) {
		t.Fatalf("Serialize() = %x, want %x", out, want)
	}
}

// Extensions container round-trip: decode then re-encode must reproduce the
// original bytes, preserving declaration order.
func TestExtensionsContainerRoundTrip(t *testing.T) {
	emptyExt := extensionTLV(t, ExtCodeExtendedMasterSecret, nil)
	sniPayload := []byte{
		0x00, 0x05, // server_name_list length
		0x00,       // host_name
		0x00, 0x02, // name length
		'e', 'x',
	}
	sniExt := extensionTLV(t, ExtCodeServerName, sniPayload)
	body := append(append([]byte{}, emptyExt...), sniExt...)
	outer := append([]byte{0x00, byte(len(body))}, body...)

	r := NewReader(outer)
	ex, err := DeserializeExtensions(r, SideClient, MessageClientHello)
	if err != nil {
		t.Fatalf("DeserializeExtensions: %v", err)
	}
	if got := ex.Types(); len(got) != 2 || got[0] != ExtCodeExtendedMasterSecret || got[1] != ExtCodeServerName {
		t.Fatalf("Types() = %v", got)
	}
	reserialized, err := ex.Serialize(SideClient)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(reserialized, outer) {
		t.Fatalf("round trip mismatch:\n got  %x\n want %x", reserialized, outer)
	}
}

// A no-extensions-block ServerHello (HasRemaining is false at the point
// extensions would start) decodes to an empty container.
func TestDeserializeExtensionsAbsentBlock(t *testing.T) {
	r := NewReader(nil)
	ex, err := DeserializeExtensions(r, SideServer, MessageServerHello)
	if err != nil {
		t.Fatalf("DeserializeExtensions: %v", err)
	}
	if ex.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", ex.Len())
	}
}

// A peer that declares an extension's outer size inconsistently with its
// own internal length prefix must not desynchronize the cursor for the
// extensions that follow: DeserializeExtensions bounds each carrier to
// exactly its declared size and rejects anything left unconsumed.
func TestExtensionDeclaredSizeMismatchRejected(t *testing.T) {
	tests := []struct {
		name    string
		code    uint16
		side    Side
		payload []byte
	}{
		{
			// internal list length claims one group (2 bytes); declared
			// size covers two.
			name:    "supported_groups",
			code:    ExtCodeSupportedGroups,
			side:    SideClient,
			payload: []byte{0x00, 0x02, 0x00, 0x17, 0x00, 0x18},
		},
		{
			name:    "signature_algorithms",
			code:    ExtCodeSignatureAlgorithms,
			side:    SideClient,
			payload: []byte{0x00, 0x02, 0x04, 0x01, 0x05, 0x01},
		},
		{
			// internal list length claims one format byte; declared size
			// covers two.
			name:    "ec_point_formats",
			code:    ExtCodeECPointFormats,
			side:    SideClient,
			payload: []byte{0x01, 0x00, 0x01},
		},
		{
			// internal list claims one protocol entry (3 bytes); the
			// declared size covers one more trailing byte.
			name:    "alpn",
			code:    ExtCodeALPN,
			side:    SideClient,
			payload: []byte{0x00, 0x03, 0x02, 'h', '2', 0xaa},
		},
		{
			// internal server_name_list length claims its one entry;
			// the declared size covers one more trailing byte.
			name:    "server_name",
			code:    ExtCodeServerName,
			side:    SideClient,
			payload: []byte{0x00, 0x05, 0x00, 0x00, 0x02, 'e', 'x', 0xaa},
		},
		{
			// client-form supported_versions: internal list length
			// claims one version; one trailing byte remains.
			name:    "supported_versions",
			code:    ExtCodeSupportedVersions,
			side:    SideClient,
			payload: []byte{0x02, 0x03, 0x03, 0xaa},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := extensionTLV(t, tc.code, tc.payload)
			outer := append([]byte{0x00, byte(len(body))}, body...)
			r := NewReader(outer)
			_, err := DeserializeExtensions(r, tc.side, MessageClientHello)
			if err == nil {
				t.Fatalf("expected declared-size mismatch to be rejected")
			}
			if !tlserrors.IsDecodeError(err) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
		})
	}
}

// Property 1: a server's zero-length server_name acknowledgement is an
// empty marker, reproduced on the wire rather than elided.
func TestServerNameAcknowledgementRoundTrip(t *testing.T) {
	body := extensionTLV(t, ExtCodeServerName, nil)
	outer := append([]byte{0x00, byte(len(body))}, body...)
	r := NewReader(outer)
	ex, err := DeserializeExtensions(r, SideServer, MessageServerHello)
	if err != nil {
		t.Fatalf("DeserializeExtensions: %v", err)
	}
	e, ok := ex.Get(ExtCodeServerName)
	if !ok {
		t.Fatalf("server_name not found")
	}
	sni, ok := e.(*ServerNameIndicator)
	if !ok || !sni.Acknowledged {
		t.Fatalf("expected an acknowledged ServerNameIndicator, got %+v", e)
	}
	out, err := ex.Serialize(SideServer)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(out, outer) {
		t.Fatalf("round trip mismatch:\n got  %x\n want %x", out, outer)
	}
}

// status_request's zero-length body is a legitimately empty extension, not
// a decode error, matching session_ticket's allowance for an empty body.
// Like session_ticket, an incidentally empty result elides on
// re-serialization rather than reproducing the zero-length wire entry,
// since this carrier has no dedicated presence marker.
func TestCertificateStatusRequestEmptyBodyAccepted(t *testing.T) {
	body := extensionTLV(t, ExtCodeStatusRequest, nil)
	outer := append([]byte{0x00, byte(len(body))}, body...)
	r := NewReader(outer)
	ex, err := DeserializeExtensions(r, SideServer, MessageServerHello)
	if err != nil {
		t.Fatalf("DeserializeExtensions: %v", err)
	}
	e, ok := ex.Get(ExtCodeStatusRequest)
	if !ok {
		t.Fatalf("status_request not found")
	}
	csr, ok := e.(*CertificateStatusRequest)
	if !ok || csr.StatusType != 0 || len(csr.ResponderIDList) != 0 || len(csr.RequestExt) != 0 {
		t.Fatalf("expected an empty CertificateStatusRequest, got %+v", e)
	}
	payload, err := csr.Payload(SideServer)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if payload != nil {
		t.Fatalf("Payload() = %x, want nil for an empty status_request", payload)
	}
}

// extensionTLV builds a single (code, len(payload), payload) triple.
func extensionTLV(t *testing.T, code uint16, payload []byte) []byte {
	t.Helper()
	w := NewWriter()
	w.AppendU16(code)
	if err := w.AppendLengthValue(payload, 2); err != nil {
		t.Fatalf("AppendLengthValue: %v", err)
	}
	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return out
}
