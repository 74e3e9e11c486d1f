// Package payload defines the clipboard contents clipshare mirrors.
//
// A Payload is a tagged union over the two supported representations:
// plain text (UTF-8 bytes) and a single raster image (PNG-encoded bytes, as
// read from the clipboard so round trips never re-encode). Anything else on the
// clipboard maps to KindNone, which is not an error.
package payload

// Kind identifies which variant a Payload holds.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindImage
)

// MIME types of the supported kinds.
const (
	MIMEText  = "text/plain"
	MIMEImage = "image/png"
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "none"
	}
}

// MIME returns the MIME type of k, or "" for KindNone.
func (k Kind) MIME() string {
	switch k {
	case KindText:
		return MIMEText
	case KindImage:
		return MIMEImage
	default:
		return ""
	}
}

// Payload is a single clipboard representation.
type Payload struct {
	Kind Kind
	Data []byte
}

// None is the payload for "no supported format present".
var None = Payload{}

// Text creates a text payload.
func Text(s string) Payload {
	return Payload{Kind: KindText, Data: []byte(s)}
}

// Image creates an image payload from PNG-encoded bytes.
func Image(png []byte) Payload {
	return Payload{Kind: KindImage, Data: png}
}

// IsNone reports whether p carries no supported content.
func (p Payload) IsNone() bool { return p.Kind == KindNone }

// String returns the text content for text payloads and "" otherwise.
func (p Payload) String() string {
	if p.Kind != KindText {
		return ""
	}
	return string(p.Data)
}

// Size is the payload length in bytes.
func (p Payload) Size() int { return len(p.Data) }
