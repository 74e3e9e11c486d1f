// Package codec converts clipboard payloads to and from their on-disk form.
//
//	text  ⇄ UTF-8 bytes (text.txt, no BOM written, BOM tolerated on read)
//	image ⇄ PNG bytes   (img.png)
//
// All functions are pure. Decoding bytes that are not valid for the expected
// format returns a *DecodeError; callers treat it as a transient mid-write
// snapshot and wait for the next notification.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"go.klb.dev/clipshare/internal/payload"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeError reports bytes that could not be decoded as the expected kind.
type DecodeError struct {
	Kind payload.Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is (or wraps) a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// EncodeText returns the bytes written to text.txt for p.
func EncodeText(p payload.Payload) ([]byte, error) {
	if p.Kind != payload.KindText {
		return nil, fmt.Errorf("encode text: payload is %s", p.Kind)
	}
	return p.Data, nil
}

// DecodeText turns the contents of text.txt into a text payload. A leading
// UTF-8 BOM is stripped. Empty input yields an empty text payload; deciding
// what to do with it is up to the caller.
func DecodeText(b []byte) (payload.Payload, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if !utf8.Valid(b) {
		return payload.None, &DecodeError{Kind: payload.KindText, Err: errors.New("invalid UTF-8")}
	}
	return payload.Payload{Kind: payload.KindText, Data: b}, nil
}

// EncodeImage PNG-encodes img.
func EncodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeImage decodes PNG bytes.
func DecodeImage(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, &DecodeError{Kind: payload.KindImage, Err: errors.New("empty file")}
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, &DecodeError{Kind: payload.KindImage, Err: err}
	}
	return img, nil
}

// ImagePayload validates that b is a complete PNG and wraps it unchanged.
func ImagePayload(b []byte) (payload.Payload, error) {
	if _, err := DecodeImage(b); err != nil {
		return payload.None, err
	}
	return payload.Image(b), nil
}

// Fingerprint identifies payload content. Text hashes its bytes; images hash
// their decoded RGBA pixels and bounds, so two encodings of the same picture
// (e.g. after an OS re-encode on the clipboard) compare equal. Undecodable
// images fall back to hashing the raw bytes.
func Fingerprint(p payload.Payload) uint64 {
	switch p.Kind {
	case payload.KindText:
		return xxhash.Sum64(p.Data)
	case payload.KindImage:
		img, err := DecodeImage(p.Data)
		if err != nil {
			return xxhash.Sum64(p.Data)
		}
		return pixelHash(img)
	default:
		return 0
	}
}

func pixelHash(img image.Image) uint64 {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	d := xxhash.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(b.Dx()))
	binary.LittleEndian.PutUint32(dims[4:], uint32(b.Dy()))
	_, _ = d.Write(dims[:])
	_, _ = d.Write(rgba.Pix[:4*b.Dx()*b.Dy()])
	return d.Sum64()
}
