// Package payload tests for the binary content codec.
package payload

import (
	"bytes"
	"encoding/base64"
	"testing"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// TestDecode_AllKinds verifies decoding of every source encoding.
func TestDecode_AllKinds(t *testing.T) {
	content := []byte("%PDF-1.7 fake document body")

	tests := []struct {
		name string
		ref  Ref
	}{
		{"raw bytes", FromBytes(content)},
		{"base64 text", FromBase64(base64.StdEncoding.EncodeToString(content))},
		{"transferable", FromTransferable(NewTransferableBuffer(content))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.ref)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(got, content) {
				t.Errorf("Decode = %q, want %q", got, content)
			}
		})
	}
}

// TestDecode_Failures covers the PAYLOAD_CORRUPT cases.
func TestDecode_Failures(t *testing.T) {
	detached := NewTransferableBuffer([]byte("gone"))
	detached.Detach()

	tests := []struct {
		name string
		ref  Ref
	}{
		{"empty raw bytes", FromBytes(nil)},
		{"empty base64", FromBase64("")},
		{"malformed base64", FromBase64("!!!not-base64!!!")},
		{"base64 of nothing", FromBase64(base64.StdEncoding.EncodeToString(nil))},
		{"nil transferable", FromTransferable(nil)},
		{"detached transferable", FromTransferable(detached)},
		{"empty transferable", FromTransferable(NewTransferableBuffer(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.ref)
			if err == nil {
				t.Fatal("Decode should have failed")
			}
			if !apperrors.Is(err, apperrors.ErrPayloadCorrupt) {
				t.Errorf("Expected PAYLOAD_CORRUPT, got %v", err)
			}
		})
	}
}

// TestDecode_TransferableIndependence verifies the decoded bytes are
// unaffected by later mutation or detachment of the source buffer.
func TestDecode_TransferableIndependence(t *testing.T) {
	src := []byte("original content")
	buf := NewTransferableBuffer(src)

	decoded, err := Decode(FromTransferable(buf))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	// Mutate the shared backing slice, then detach the buffer.
	src[0] = 'X'
	buf.Detach()

	if !bytes.Equal(decoded, []byte("original content")) {
		t.Errorf("Decoded bytes aliased the source: %q", decoded)
	}
	if !buf.Detached() {
		t.Error("Buffer should report detached")
	}
	if _, ok := buf.Bytes(); ok {
		t.Error("Bytes after detach should fail")
	}
}

// TestDecode_RawBytesIndependence verifies raw decode clones too.
func TestDecode_RawBytesIndependence(t *testing.T) {
	src := []byte("raw content")
	decoded, err := Decode(FromBytes(src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	src[0] = 'X'
	if decoded[0] != 'r' {
		t.Error("Decoded bytes aliased the caller's slice")
	}
}

// TestRoundTrip verifies decode(encode(decode(ref))) is byte-identical
// for all three source encodings.
func TestRoundTrip(t *testing.T) {
	content := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0x10, 0x7f}

	refs := map[string]Ref{
		"raw bytes":    FromBytes(content),
		"base64 text":  FromBase64(base64.StdEncoding.EncodeToString(content)),
		"transferable": FromTransferable(NewTransferableBuffer(append([]byte(nil), content...))),
	}

	for name, ref := range refs {
		t.Run(name, func(t *testing.T) {
			first, err := Decode(ref)
			if err != nil {
				t.Fatalf("First decode failed: %v", err)
			}
			encoded := EncodeForTransport(first)
			second, err := Decode(FromBase64(encoded))
			if err != nil {
				t.Fatalf("Second decode failed: %v", err)
			}
			if !bytes.Equal(second, content) {
				t.Errorf("Round trip diverged: %v != %v", second, content)
			}
		})
	}
}

// TestToPlaybackForm verifies the playback wrapper owns its bytes.
func TestToPlaybackForm(t *testing.T) {
	src := []byte("viewer bytes")
	pb, err := ToPlaybackForm(src, "application/pdf")
	if err != nil {
		t.Fatalf("ToPlaybackForm failed: %v", err)
	}
	if pb.MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q", pb.MIMEType)
	}

	// Renderer-side mutation must not reach the source...
	pb.Data[0] = 'X'
	if src[0] != 'v' {
		t.Error("Playback aliased the source bytes")
	}
	// ...and source-side mutation must not reach the playback copy.
	src[1] = 'Y'
	if pb.Data[1] != 'i' {
		t.Error("Source mutation leaked into playback bytes")
	}

	if _, err := ToPlaybackForm(nil, "application/pdf"); err == nil {
		t.Error("Empty playback content should fail")
	}
}

// TestRefKind verifies the constructors tag correctly.
func TestRefKind(t *testing.T) {
	if FromBytes([]byte("x")).Kind() != KindRawBytes {
		t.Error("FromBytes kind mismatch")
	}
	if FromBase64("eA==").Kind() != KindBase64Text {
		t.Error("FromBase64 kind mismatch")
	}
	if FromTransferable(NewTransferableBuffer([]byte("x"))).Kind() != KindTransferable {
		t.Error("FromTransferable kind mismatch")
	}
}
