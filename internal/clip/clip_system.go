//go:build darwin || linux || windows

package clip

import (
	"fmt"

	"golang.design/x/clipboard"

	"go.klb.dev/clipshare/internal/payload"
)

// readSystem reads the OS clipboard through golang.design/x/clipboard. Image
// data comes back PNG-encoded, which is exactly what img.png stores.
func readSystem() (payload.Payload, error) {
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		return payload.Payload{Kind: payload.KindText, Data: text}, nil
	}
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		return payload.Image(img), nil
	}
	return payload.None, nil
}

func writeSystem(p payload.Payload) error {
	switch p.Kind {
	case payload.KindText:
		clipboard.Write(clipboard.FmtText, p.Data)
	case payload.KindImage:
		clipboard.Write(clipboard.FmtImage, p.Data)
	default:
		return fmt.Errorf("unsupported payload kind: %s", p.Kind)
	}
	return nil
}
