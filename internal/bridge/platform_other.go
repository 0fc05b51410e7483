//go:build !linux

package bridge

import (
	"runtime"
	"strings"
)

// platformVersion reports the OS and architecture; the kernel release is
// only read on Linux.
func platformVersion() string {
	return strings.ToUpper(runtime.GOOS[:1]) + runtime.GOOS[1:] + " " + runtime.GOARCH
}
