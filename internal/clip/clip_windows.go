//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
//
// static LRESULT CALLBACK clipshare_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, WM_USER + 1, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND clipshare_create_listener_window() {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = clipshare_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "ClipshareClipboard";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, "ClipshareClipboard", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     AddClipboardFormatListener(hwnd);
//     return hwnd;
// }
//
// static void clipshare_destroy_listener_window(HWND hwnd) {
//     RemoveClipboardFormatListener(hwnd);
//     DestroyWindow(hwnd);
// }
//
// static int clipshare_pump_messages(HWND hwnd) {
//     MSG msg;
//     int changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == WM_USER + 1) { changed = 1; }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
//     return changed;
// }
import "C"

import (
	"log/slog"
	"runtime"
	"time"

	"golang.design/x/clipboard"

	"go.klb.dev/clipshare/internal/payload"
)

const windowsPumpInterval = 50 * time.Millisecond

type windowsBackend struct {
	watchCh chan struct{}
	done    chan struct{}
}

// New returns the Windows clipboard backend using AddClipboardFormatListener.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return NewHeadless()
	}
	b := &windowsBackend{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go b.pump()
	return b
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

// pump owns the message-only listener window. A window's messages can only
// be retrieved on the thread that created it, so the goroutine stays locked.
func (b *windowsBackend) pump() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd := C.clipshare_create_listener_window()
	defer C.clipshare_destroy_listener_window(hwnd)

	t := time.NewTicker(windowsPumpInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if C.clipshare_pump_messages(hwnd) != 0 {
				notify(b.watchCh)
			}
		}
	}
}

func (b *windowsBackend) Read() (payload.Payload, error) { return readSystem() }
func (b *windowsBackend) Write(p payload.Payload) error  { return writeSystem(p) }
func (b *windowsBackend) Watch() <-chan struct{}         { return b.watchCh }
func (b *windowsBackend) Close()                         { close(b.done) }
