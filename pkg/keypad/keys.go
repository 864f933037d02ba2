package keypad

// Matrix dimensions.
const (
	Rows = 4
	Cols = 4
)

// NoKey is the logical code of the empty-queue sentinel.
const NoKey byte = 0xff

// Logical key codes, row-major over the physical layout.
const (
	Key1 byte = iota
	Key2
	Key3
	KeyA
	Key4
	Key5
	Key6
	KeyB
	Key7
	Key8
	Key9
	KeyC
	KeyStar
	Key0
	KeyHash
	KeyD
)

var keyChars = [Rows * Cols]byte{
	'1', '2', '3', 'A',
	'4', '5', '6', 'B',
	'7', '8', '9', 'C',
	'*', '0', '#', 'D',
}

// Logical converts physical coordinates to a logical key code.
func Logical(row, col int) byte {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return NoKey
	}
	return byte(row*Cols + col)
}

// Physical converts a logical key code back to coordinates.
func Physical(key byte) (row, col int, ok bool) {
	if key >= Rows*Cols {
		return 0, 0, false
	}
	return int(key) / Cols, int(key) % Cols, true
}

// Char returns the face character of a logical key, 0 if invalid.
func Char(key byte) byte {
	if key >= Rows*Cols {
		return 0
	}
	return keyChars[key]
}

// KeyFromChar returns the logical key for a face character.
func KeyFromChar(ch byte) byte {
	for key, c := range keyChars {
		if c == ch {
			return byte(key)
		}
	}
	return NoKey
}

// Number returns the numeric value of a digit key, 0xff otherwise.
func Number(key byte) byte {
	switch ch := Char(key); {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	default:
		return 0xff
	}
}
