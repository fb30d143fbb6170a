package client

import "tcpchat/internal/console"

// Terminal is the slice of the console the session needs. Tests substitute
// an in-memory implementation.
type Terminal interface {
	ReadLine() (string, bool)
	Write(text string, color console.Color)
	LockWrite()
	UnlockWrite()
	WriteLocked(text string, color console.Color)
	EraseChars(n int)
	Size() (width, height int)
}
