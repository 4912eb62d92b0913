//go:build !(cgo && (linux || darwin || windows))

package engineffi

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned by the stub binding used when this
// binary was built without cgo or for a platform with no real binding.
// linux/darwin (cgo_unix.go) and windows (cgo_windows.go) have real
// bindings when built with cgo; this file covers CGO_ENABLED=0 builds and
// every other operating system.
var ErrUnsupportedPlatform = errors.New("engineffi: native Engine binding unavailable on this build")

type unsupportedLibrary struct{}

// NewLibrary returns a binding that always reports ErrUnsupportedPlatform.
// It exists so the package, and everything that depends on it, compiles
// and is testable (against fake.go) even when the real binding can't be
// built.
func NewLibrary() Library {
	return unsupportedLibrary{}
}

func (unsupportedLibrary) Load(path string) error                { return ErrUnsupportedPlatform }
func (unsupportedLibrary) Unload() error                         { return nil }
func (unsupportedLibrary) LoadResource(dir string) error          { return ErrUnsupportedPlatform }
func (unsupportedLibrary) NewInstance(ctx context.Context, cb Callback) (Instance, error) {
	return nil, ErrUnsupportedPlatform
}
