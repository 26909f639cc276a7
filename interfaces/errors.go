package interfaces

import (
	"errors"
	"fmt"
)

// Registry error kinds. Every failing operation returns one of these
// (possibly wrapped) and leaves the registry unchanged.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrOutOfRange        = errors.New("index out of range")
	ErrFromGreaterThanTo = errors.New("from greater than to")
	ErrEmptyRegistry     = errors.New("registry is empty")
	ErrZeroAddress       = errors.New("zero address")
	ErrNotAContract      = errors.New("not a contract")

	// ErrConstructorZeroAddress is returned when a registry is constructed
	// with a zero keeper (or a zero vault when the vault is required).
	ErrConstructorZeroAddress = fmt.Errorf("constructor: %w", ErrZeroAddress)

	// ErrNoCodeInspector is returned by UpdateVault when the registry has no
	// way to check for contract code.
	ErrNoCodeInspector = errors.New("no code inspector configured")

	// ErrSnapshotNotFound is returned by snapshot stores holding no snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

var errorKinds = []struct {
	kind string
	err  error
}{
	{"Unauthorized", ErrUnauthorized},
	{"OutOfRange", ErrOutOfRange},
	{"FromGreaterThanTo", ErrFromGreaterThanTo},
	{"EmptyRegistry", ErrEmptyRegistry},
	{"NotAContract", ErrNotAContract},
	{"ZeroAddress", ErrZeroAddress},
}

// ErrorKind returns the wire name of a registry error, or "" if err is not one.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}

// ErrorForKind returns the sentinel error for a wire name, or nil.
func ErrorForKind(kind string) error {
	for _, k := range errorKinds {
		if k.kind == kind {
			return k.err
		}
	}
	return nil
}
