package eyedropper

import (
	"context"
	"fmt"
)

// GlobalName is the well-known name the capability is installed under.
const GlobalName = "EyeDropper"

// EyeDropper is the capability contract shared by native implementations
// and the Controller.
type EyeDropper interface {
	Open(ctx context.Context) (*Request, error)
}

var _ EyeDropper = (*Controller)(nil)

// Registry is a host's table of named capabilities.
type Registry interface {
	Lookup(name string) (any, bool)
	Define(name string, value any) error
}

// Supported reports whether reg already provides an eyedropper under
// GlobalName.
func Supported(reg Registry) bool {
	_, ok := reg.Lookup(GlobalName)
	return ok
}

// Install defines the polyfill under GlobalName unless the registry already
// provides one. It reports whether the polyfill was installed.
func Install(reg Registry, polyfill func() EyeDropper) (bool, error) {
	if Supported(reg) {
		return false, nil
	}
	if err := reg.Define(GlobalName, polyfill()); err != nil {
		return false, fmt.Errorf("attach %s polyfill: %w", GlobalName, err)
	}
	return true, nil
}
