//go:build !darwin && !windows && !linux

package clip

// New returns a no-op backend; golang.design/x/clipboard has no support here.
func New() Backend { return NewHeadless() }
