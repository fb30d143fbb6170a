package console

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadLineEchoesAndReturnsLine(t *testing.T) {
	var out bytes.Buffer
	con := NewWithIO(strings.NewReader("abc\r"), &out)

	line, ok := con.ReadLine()
	if !ok || line != "abc" {
		t.Fatalf("ReadLine = (%q, %v)", line, ok)
	}
	if got := out.String(); got != "abc\r\n" {
		t.Fatalf("echo = %q", got)
	}
}

func TestReadLineBackspace(t *testing.T) {
	var out bytes.Buffer
	con := NewWithIO(strings.NewReader("ab\x7fc\r"), &out)

	line, ok := con.ReadLine()
	if !ok || line != "ac" {
		t.Fatalf("ReadLine = (%q, %v)", line, ok)
	}
	if !strings.Contains(out.String(), "\b \b") {
		t.Fatalf("backspace was not echoed: %q", out.String())
	}
}

func TestReadLineClosedInput(t *testing.T) {
	con := NewWithIO(strings.NewReader(""), &bytes.Buffer{})
	if _, ok := con.ReadLine(); ok {
		t.Fatal("expected ok=false on closed input")
	}
	con = NewWithIO(strings.NewReader(string(KEY_CTRL_D)), &bytes.Buffer{})
	if _, ok := con.ReadLine(); ok {
		t.Fatal("expected ok=false on ctrl-d")
	}
}

func TestWriteColorsAndNewlines(t *testing.T) {
	var out bytes.Buffer
	con := NewWithIO(strings.NewReader(""), &out)

	con.Write("one\ntwo\n", Cyan)
	want := string(Cyan) + "one\r\ntwo\r\n" + Reset
	if out.String() != want {
		t.Fatalf("Write produced %q, want %q", out.String(), want)
	}
}

func TestWriteWrapsAroundPendingInput(t *testing.T) {
	var out bytes.Buffer
	con := NewWithIO(strings.NewReader(""), &out)
	con.input = []byte("typed") // a partially entered line

	con.Write("msg\n", Yellow)
	got := out.String()

	erase := "\r" + ClearDown
	if !strings.HasPrefix(got, erase) {
		t.Fatalf("output does not start by erasing the input echo: %q", got)
	}
	if !strings.HasSuffix(got, "typed") {
		t.Fatalf("input echo was not restored: %q", got)
	}
	if !strings.Contains(got, string(Yellow)+"msg\r\n"+Reset) {
		t.Fatalf("message missing from output: %q", got)
	}
}

func TestEraseCharsCrossesRows(t *testing.T) {
	var out bytes.Buffer
	con := NewWithIO(strings.NewReader(""), &out)

	// 160 cells at the 80-column fallback width is two full rows
	con.LockWrite()
	con.EraseChars(160)
	con.UnlockWrite()

	want := "\r" + ESC + "[2A" + ClearDown
	if out.String() != want {
		t.Fatalf("EraseChars emitted %q, want %q", out.String(), want)
	}
}

func TestEraseCharsZeroIsNoop(t *testing.T) {
	var out bytes.Buffer
	con := NewWithIO(strings.NewReader(""), &out)
	con.LockWrite()
	con.EraseChars(0)
	con.UnlockWrite()
	if out.Len() != 0 {
		t.Fatalf("EraseChars(0) wrote %q", out.String())
	}
}
