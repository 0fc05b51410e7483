//go:build linux

package bridge

import "golang.org/x/sys/unix"

// platformVersion reports "Linux <kernel release>".
func platformVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return "Linux"
	}
	return "Linux " + unix.ByteSliceToString(u.Release[:])
}
