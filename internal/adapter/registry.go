package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harrison/gauntlet/internal/workspace"
)

// Options carries the shared construction inputs for every adapter kind.
type Options struct {
	// Workspace is the git tree the agent works in (required).
	Workspace *workspace.Workspace

	// Model selects the underlying model for adapters that support one.
	Model string

	// Binary overrides the adapter's default executable.
	Binary string

	// Command is the argv template for the generic command adapter.
	Command []string

	// ExtraArgs are appended verbatim to the tool invocation.
	ExtraArgs []string
}

// Factory builds one adapter kind from shared options.
type Factory func(opts Options) (Adapter, error)

var registry = map[string]Factory{}

// Register makes an adapter kind constructible by name. Registration
// happens in init funcs; a duplicate name panics since it is a wiring
// mistake, not a runtime condition.
func Register(name string, factory Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("adapter %q registered twice", name))
	}
	registry[name] = factory
}

// New constructs the named adapter. An unknown name is an error that
// should abort the run before any scenario executes.
func New(name string, opts Options) (Adapter, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if opts.Workspace == nil {
		return nil, fmt.Errorf("adapter %q requires a workspace", name)
	}
	return factory(opts)
}

// Known reports whether an adapter kind is registered under name.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names lists the registered adapter kinds in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probe constructs the named adapter without a workspace and runs its
// availability check. It exists for availability listings only; a probed
// adapter must never Generate.
func Probe(ctx context.Context, name string, opts Options) error {
	factory, ok := registry[name]
	if !ok {
		return fmt.Errorf("unknown adapter %q", name)
	}
	opts.Workspace = nil
	a, err := factory(opts)
	if err != nil {
		return err
	}
	return a.CheckAvailability(ctx)
}
