package console

const (
	KEY_CTRL_C byte = 0x03 // interrupt
	KEY_CTRL_D byte = 0x04 // EOF

	KEY_BACKSPACE byte = 0x7F // DEL (most terminals)

	KEY_TAB   byte = 0x09
	KEY_ENTER byte = 0x0D // carriage return
	KEY_ESC   byte = 0x1B
)

// Printable ASCII range
// 0x20 (space) → 0x7E (~)

func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}
