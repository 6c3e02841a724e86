package cpf

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"

	"github.com/cpfhost/cpf/internal/abi"
)

// Prototype identifies one of a small, closed set of function-pointer
// signatures the dispatcher knows how to invoke. Extending the set means
// adding an enumerator here, a typed purego.RegisterFunc wrapper, and a
// case in callByAddr — never open-ended dynamic-signature marshalling.
type Prototype int

const (
	// Undefined is the zero value and is always rejected by the
	// dispatcher as an unknown prototype.
	Undefined Prototype = iota

	// CHARPTR: func() *char — no parameters, returns a pointer to text.
	// The dispatcher reads the returned pointer as a Go string.
	CHARPTR

	// INTINT: func(int) int — one integer parameter, integer return.
	INTINT

	// VOIDPTRCHARPTRINT: func(*char, int) *void — a pointer-to-text and
	// an integer parameter, returning an untyped pointer.
	VOIDPTRCHARPTRINT
)

func (p Prototype) String() string {
	switch p {
	case CHARPTR:
		return "CHARPTR"
	case INTINT:
		return "INT_INT"
	case VOIDPTRCHARPTRINT:
		return "VOIDPTR_CHARPTR_INT"
	default:
		return "UNDEFINED"
	}
}

// callByAddr invokes the function at addr under the given prototype,
// consuming args according to that prototype's parameter list. A null
// address is a recoverable error. An unknown prototype is logged and
// returns (nil, nil) rather than an error, matching the dispatcher's
// "fails and logs, does not propagate" contract.
func callByAddr(log logger, addr uintptr, proto Prototype, args ...any) (any, error) {
	if addr == 0 {
		return nil, errors.New("dispatch: function address is null")
	}

	switch proto {
	case CHARPTR:
		var fn func() uintptr
		purego.RegisterFunc(&fn, addr)
		return abi.ReadCString(fn()), nil

	case INTINT:
		i, err := intArg(args, 0)
		if err != nil {
			return nil, errors.Wrap(err, "dispatch: INT_INT")
		}
		var fn func(int32) int32
		purego.RegisterFunc(&fn, addr)
		return int(fn(int32(i))), nil

	case VOIDPTRCHARPTRINT:
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, errors.Wrap(err, "dispatch: VOIDPTR_CHARPTR_INT")
		}
		i, err := intArg(args, 1)
		if err != nil {
			return nil, errors.Wrap(err, "dispatch: VOIDPTR_CHARPTR_INT")
		}
		var fn func(string, int32) uintptr
		purego.RegisterFunc(&fn, addr)
		return fn(s, int32(i)), nil

	default:
		log.Errorf("dispatch: unknown prototype enumerator %d", int(proto))
		return nil, nil
	}
}

// logger is the minimal surface dispatch needs from a *logrus.Logger,
// kept small so callByAddr's tests can pass a trivial stand-in.
type logger interface {
	Errorf(format string, args ...any)
}

func intArg(args []any, idx int) (int, error) {
	if idx >= len(args) {
		return 0, errors.Errorf("missing argument %d", idx)
	}
	i, ok := args[idx].(int)
	if !ok {
		return 0, errors.Errorf("argument %d: expected int, got %T", idx, args[idx])
	}
	return i, nil
}

func stringArg(args []any, idx int) (string, error) {
	if idx >= len(args) {
		return "", errors.Errorf("missing argument %d", idx)
	}
	s, ok := args[idx].(string)
	if !ok {
		return "", errors.Errorf("argument %d: expected string, got %T", idx, args[idx])
	}
	return s, nil
}
