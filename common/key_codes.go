package common

// Key is a platform-independent key code.
// Values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeySpace Key = 32
	KeyP     Key = 80
	KeyR     Key = 82
	KeyV     Key = 86

	KeyEsc       Key = 256
	KeyEnter     Key = 257
	KeyBackspace Key = 259
	KeyF1        Key = 290
	KeyF5        Key = 294
)

// KeyAction distinguishes key presses, auto-repeats and releases.
type KeyAction int

const (
	KeyPress KeyAction = iota
	KeyRepeat
	KeyRelease
)
