// Package payload normalizes document binary content between the
// encodings the surrounding runtime hands us. All codec operations
// produce independently-owned storage; no function returns a view
// that aliases caller-held memory.
package payload

import "sync"

// Kind tags the encoding of a Ref. The set is closed: shape probing
// happens once, at the codec boundary, never at call sites.
type Kind int

const (
	// KindRawBytes is an owned byte buffer.
	KindRawBytes Kind = iota
	// KindBase64Text is standard base64-encoded text, the form used
	// for JSON remote calls.
	KindBase64Text
	// KindTransferable is a runtime-provided buffer that may become
	// permanently invalid ("detached") after being moved elsewhere.
	KindTransferable
)

// Ref is a logical handle to a document's binary content in exactly
// one of three interchangeable encodings.
type Ref struct {
	kind Kind
	raw  []byte
	text string
	buf  *TransferableBuffer
}

// FromBytes builds a Ref over an owned byte buffer.
func FromBytes(b []byte) Ref {
	return Ref{kind: KindRawBytes, raw: b}
}

// FromBase64 builds a Ref over base64-encoded text.
func FromBase64(s string) Ref {
	return Ref{kind: KindBase64Text, text: s}
}

// FromTransferable builds a Ref over a runtime-shared buffer.
func FromTransferable(buf *TransferableBuffer) Ref {
	return Ref{kind: KindTransferable, buf: buf}
}

// Kind returns the encoding tag of the ref.
func (r Ref) Kind() Kind {
	return r.kind
}

// TransferableBuffer models a binary buffer shared with the
// surrounding runtime. It stays shared until the codec clones it;
// once some other subsystem consumes the buffer it detaches and every
// later read fails.
type TransferableBuffer struct {
	mu       sync.Mutex
	data     []byte
	detached bool
}

// NewTransferableBuffer wraps a runtime-provided slice. The slice
// remains shared with the caller until Detach.
func NewTransferableBuffer(data []byte) *TransferableBuffer {
	return &TransferableBuffer{data: data}
}

// Bytes returns the live contents, or ok=false once detached.
// The returned slice still aliases the shared buffer; callers that
// need owned storage must go through Decode.
func (b *TransferableBuffer) Bytes() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return nil, false
	}
	return b.data, true
}

// Detach moves the contents out and permanently invalidates the
// buffer, mirroring what the runtime does when the buffer is
// transferred to another owner.
func (b *TransferableBuffer) Detach() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return nil
	}
	data := b.data
	b.data = nil
	b.detached = true
	return data
}

// Detached reports whether the buffer has been invalidated.
func (b *TransferableBuffer) Detached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.detached
}
