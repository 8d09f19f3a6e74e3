package command

import "fmt"

type keepKind int

const (
	keepStop keepKind = iota + 1 // zero value is not a valid Keep
	keepHold
	keepCustom
)

// Keep is the tagged variant Pause's hold-payload argument uses instead of
// a runtime type switch over string-or-bytes.
type Keep struct {
	kind   keepKind
	custom [44]byte
}

// KeepStop asserts the STOP payload for the duration of the pause.
func KeepStop() Keep { return Keep{kind: keepStop} }

// KeepHold leaves whatever payload is currently asserted untouched.
func KeepHold() Keep { return Keep{kind: keepHold} }

// KeepCustom asserts an explicit 44-byte payload for the duration of the
// pause.
func KeepCustom(payload [44]byte) Keep {
	return Keep{kind: keepCustom, custom: payload}
}

func (k Keep) String() string {
	switch k.kind {
	case keepStop:
		return "stop"
	case keepHold:
		return "hold"
	case keepCustom:
		return fmt.Sprintf("custom(%d bytes)", len(k.custom))
	default:
		return "unknown"
	}
}
