// Package rawterm puts the controlling terminal into raw mode so the
// emulator's single-step debugger can read one keystroke at a time
// instead of waiting for a newline.
package rawterm

import "golang.org/x/sys/unix"

// Restore undoes the raw-mode switch. Callers should defer it
// immediately after a successful Enable.
type Restore func() error

// Enable switches fd (typically os.Stdin's file descriptor) into raw
// mode: no line buffering, no local echo, one byte delivered per read.
// It is a no-op error (returns a nil Restore) if fd is not a terminal.
func Enable(fd int) (Restore, error) {
	orig, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, err
	}

	return func() error {
		return unix.IoctlSetTermios(fd, ioctlSetTermios, orig)
	}, nil
}
