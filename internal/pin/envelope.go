package pin

import (
	"encoding/json"
)

// EnvelopeKind classifies the shapes a pinning provider may wrap stored
// content in. Fetched payloads are matched against this closed set instead of
// probing arbitrary properties.
type EnvelopeKind int

const (
	// RawString: the payload is a bare JSON string.
	RawString EnvelopeKind = iota
	// WrappedContent: the payload nests the original value under "content".
	WrappedContent
	// WrappedEncryptedField: the payload carries the ciphertext under
	// "ciphertext", the shape this client uploads.
	WrappedEncryptedField
	// Unknown: no recognized shape; callers fall back to the raw bytes.
	Unknown
)

var envelopeKindNames = [...]string{"RawString", "WrappedContent", "WrappedEncryptedField", "Unknown"}

func (k EnvelopeKind) String() string {
	if int(k) < len(envelopeKindNames) {
		return envelopeKindNames[k]
	}
	return "Unknown"
}

// Envelope is the classified form of a fetched payload.
type Envelope struct {
	Kind    EnvelopeKind
	Content []byte
}

// Unwrap classifies raw fetched bytes against the known envelope shapes and
// returns the inner content. Unrecognized payloads are returned as-is with
// Kind Unknown (raw stringification fallback), never an error.
func Unwrap(raw []byte) Envelope {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Envelope{Kind: RawString, Content: []byte(s)}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		if ct, ok := obj["ciphertext"]; ok {
			var inner string
			if err := json.Unmarshal(ct, &inner); err == nil {
				return Envelope{Kind: WrappedEncryptedField, Content: []byte(inner)}
			}
			return Envelope{Kind: WrappedEncryptedField, Content: ct}
		}
		if content, ok := obj["content"]; ok {
			// Providers sometimes double-wrap; recurse one level.
			inner := Unwrap(content)
			if inner.Kind == Unknown {
				return Envelope{Kind: WrappedContent, Content: content}
			}
			return Envelope{Kind: WrappedContent, Content: inner.Content}
		}
	}

	return Envelope{Kind: Unknown, Content: raw}
}
