package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Console is a thread-safe terminal for interleaved reading and writing.
// ReadLine echoes raw-mode input byte by byte; Write wraps around any
// partially typed line so asynchronous messages never tear the input echo.
// LockWrite/UnlockWrite let a caller compose several write operations into
// one atomic block.
type Console struct {
	in  io.Reader
	out io.Writer

	mu    sync.Mutex // serializes writers; guards input
	input []byte     // echoed but not yet committed input line

	rawState *term.State
}

func New() *Console {
	return &Console{in: os.Stdin, out: os.Stdout}
}

// NewWithIO is used by tests to run the console against in-memory streams.
func NewWithIO(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out}
}

// Setup switches the input terminal into raw mode.
func (c *Console) Setup() error {
	f, ok := c.in.(*os.File)
	if !ok {
		return nil
	}
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return err
	}
	c.rawState = state
	return nil
}

// Restore undoes Setup and resets text attributes.
func (c *Console) Restore() {
	fmt.Fprint(c.out, Reset, CursorShow)
	if c.rawState != nil {
		if f, ok := c.in.(*os.File); ok {
			term.Restore(int(f.Fd()), c.rawState)
		}
		c.rawState = nil
	}
}

// Size returns the terminal width and height in cells.
func (c *Console) Size() (int, int) {
	if f, ok := c.in.(*os.File); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w, h
		}
	}
	return 80, 24
}

// ReadLine blocks until a full line is entered, echoing as it goes. It
// returns false when input is closed or interrupted.
func (c *Console) ReadLine() (string, bool) {
	var buf [1]byte
	for {
		if _, err := c.in.Read(buf[:]); err != nil {
			return "", false
		}
		b := buf[0]
		switch {
		case b == KEY_ENTER || b == '\n':
			c.mu.Lock()
			line := string(c.input)
			c.input = c.input[:0]
			fmt.Fprint(c.out, "\r\n")
			c.mu.Unlock()
			return line, true
		case b == KEY_CTRL_C || b == KEY_CTRL_D:
			return "", false
		case b == KEY_BACKSPACE || b == 0x08:
			c.mu.Lock()
			if len(c.input) > 0 {
				c.input = c.input[:len(c.input)-1]
				fmt.Fprint(c.out, "\b \b")
			}
			c.mu.Unlock()
		case isPrintable(b):
			c.mu.Lock()
			c.input = append(c.input, b)
			c.out.Write([]byte{b})
			c.mu.Unlock()
		}
	}
}

// Write prints text in the given color, erasing and re-echoing any
// in-progress input line around it.
func (c *Console) Write(text string, color Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.input); n > 0 {
		w, _ := c.Size()
		fmt.Fprint(c.out, "\r")
		if rows := n / w; rows > 0 {
			fmt.Fprintf(c.out, CursorUp, rows)
		}
		fmt.Fprint(c.out, ClearDown)
	}
	c.WriteLocked(text, color)
	c.out.Write(c.input)
}

// LockWrite blocks other writers until UnlockWrite, so a caller can erase
// and rewrite a region as one unit.
func (c *Console) LockWrite()   { c.mu.Lock() }
func (c *Console) UnlockWrite() { c.mu.Unlock() }

// WriteLocked prints text in the given color. The caller must hold the
// write lock.
func (c *Console) WriteLocked(text string, color Color) {
	fmt.Fprint(c.out, string(color), strings.ReplaceAll(text, "\n", "\r\n"), Reset)
}

// EraseChars erases the n screen cells preceding the cursor and leaves the
// cursor at the start of the erased region. The caller must hold the write
// lock.
func (c *Console) EraseChars(n int) {
	if n <= 0 {
		return
	}
	w, _ := c.Size()
	fmt.Fprint(c.out, "\r")
	if rows := n / w; rows > 0 {
		fmt.Fprintf(c.out, CursorUp, rows)
	}
	fmt.Fprint(c.out, ClearDown)
}
