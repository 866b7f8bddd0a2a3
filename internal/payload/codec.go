package payload

import (
	"encoding/base64"
	"fmt"

	apperrors "github.com/yctsai/readnest/internal/errors"
)

// Decode normalizes a Ref into owned bytes. The result never aliases
// the source: mutating or detaching a transferable afterwards does not
// affect the decoded bytes. Malformed base64, a detached buffer, or
// zero-length content fail with PAYLOAD_CORRUPT.
func Decode(ref Ref) ([]byte, error) {
	switch ref.kind {
	case KindRawBytes:
		if len(ref.raw) == 0 {
			return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
				"document content is empty; please re-upload the file")
		}
		return cloneBytes(ref.raw), nil

	case KindBase64Text:
		if ref.text == "" {
			return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
				"document content is empty; please re-upload the file")
		}
		data, err := base64.StdEncoding.DecodeString(ref.text)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPayloadCorrupt,
				"document content is not valid base64; please re-upload the file", err)
		}
		if len(data) == 0 {
			return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
				"document content is empty; please re-upload the file")
		}
		return data, nil

	case KindTransferable:
		if ref.buf == nil {
			return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
				"document buffer is missing; please re-upload the file")
		}
		src, ok := ref.buf.Bytes()
		if !ok {
			return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
				"document buffer was detached by the runtime; please re-upload the file")
		}
		if len(src) == 0 {
			return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
				"document content is empty; please re-upload the file")
		}
		// Defensive clone: the source stays shared with the runtime
		// and may be detached or mutated at any point afterwards.
		return cloneBytes(src), nil

	default:
		return nil, apperrors.New(apperrors.ErrInternal,
			fmt.Sprintf("unknown payload kind %d", ref.kind))
	}
}

// Playback is a render-safe wrapper handed to downstream viewers. It
// owns its bytes, so a renderer consuming or trashing them cannot
// invalidate store-held data.
type Playback struct {
	MIMEType string
	Data     []byte
}

// ToPlaybackForm builds a Playback from a clone of data.
func ToPlaybackForm(data []byte, mimeType string) (*Playback, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrPayloadCorrupt,
			"document content is empty; please re-upload the file")
	}
	return &Playback{
		MIMEType: mimeType,
		Data:     cloneBytes(data),
	}, nil
}

// EncodeForTransport encodes owned bytes as standard base64 for
// JSON-based remote calls.
func EncodeForTransport(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func cloneBytes(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
