package ext

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/dop251/goja"
)

var (
	// ErrMissingOp reports a declared op without an implementation.
	ErrMissingOp = errors.New("ext: missing op implementation")
	// ErrInvalidManifest wraps every problem found by Validate.
	ErrInvalidManifest = errors.New("ext: invalid manifest")
)

// Op is a host op body. A returned error is thrown into the script as a
// GoError.
type Op func(rt *goja.Runtime, state *OpState, args []goja.Value) (any, error)

// OpTable maps op names to their bodies.
type OpTable map[string]Op

// Validate checks names, ops and entry points across exts.
func Validate(exts ...Extension) error {
	var errs []error
	names := make(map[string]bool)
	ops := make(map[string]string)
	for _, e := range exts {
		if e.Name == "" {
			errs = append(errs, errors.New("extension without a name"))
			continue
		}
		if names[e.Name] {
			errs = append(errs, fmt.Errorf("extension %s declared twice", e.Name))
		}
		names[e.Name] = true

		for _, op := range e.Ops {
			if owner, dup := ops[op]; dup {
				errs = append(errs, fmt.Errorf("op %s declared by %s and %s", op, owner, e.Name))
				continue
			}
			ops[op] = e.Name
		}

		seen := make(map[string]bool, len(e.Scripts))
		for _, s := range e.Scripts {
			if seen[s] {
				errs = append(errs, fmt.Errorf("%s: script %s listed twice", e.Name, s))
			}
			seen[s] = true
		}
		entry, ok := e.entryScript()
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%s: entry point %q is outside ext:%s/", e.Name, e.EntryPoint, e.Name))
		case !seen[entry]:
			errs = append(errs, fmt.Errorf("%s: entry point %s is not among its scripts", e.Name, entry))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, errors.Join(errs...))
	}
	return nil
}

// Install seeds the op state, binds every declared op under
// globalThis.__bueno.ops and evaluates each extension's scripts in order,
// entry point last. Script sources are read from sources at
// <extension>/<script>.
func Install(rt *goja.Runtime, sources fs.FS, ops OpTable, exts ...Extension) (*OpState, error) {
	if err := Validate(exts...); err != nil {
		return nil, err
	}

	state := NewOpState()
	for _, e := range exts {
		if e.State != nil {
			e.State(state)
		}
	}

	bound := rt.NewObject()
	for _, e := range exts {
		for _, name := range e.Ops {
			op, ok := ops[name]
			if !ok || op == nil {
				return nil, fmt.Errorf("%s: %s: %w", e.Name, name, ErrMissingOp)
			}
			if err := bound.Set(name, bindOp(rt, state, op)); err != nil {
				return nil, fmt.Errorf("%s: bind %s: %w", e.Name, name, err)
			}
		}
	}
	ns := rt.NewObject()
	if err := ns.Set("ops", bound); err != nil {
		return nil, err
	}
	if err := rt.GlobalObject().Set("__bueno", ns); err != nil {
		return nil, err
	}

	for _, e := range exts {
		if err := evaluate(rt, sources, e); err != nil {
			return nil, err
		}
	}
	return state, nil
}

func bindOp(rt *goja.Runtime, state *OpState, op Op) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		v, err := op(rt, state, call.Arguments)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		if v == nil {
			return goja.Undefined()
		}
		return rt.ToValue(v)
	}
}

// scriptOrder returns the scripts with the entry point moved to the end.
func scriptOrder(e Extension) []string {
	entry, _ := e.entryScript()
	order := slices.DeleteFunc(slices.Clone(e.Scripts), func(s string) bool { return s == entry })
	return append(order, entry)
}

func evaluate(rt *goja.Runtime, sources fs.FS, e Extension) error {
	for _, script := range scriptOrder(e) {
		src, err := fs.ReadFile(sources, path.Join(e.Name, script))
		if err != nil {
			return fmt.Errorf("%s: %w", e.Specifier(script), err)
		}
		if _, err := rt.RunScript(e.Specifier(script), string(src)); err != nil {
			return fmt.Errorf("%s: %w", e.Specifier(script), err)
		}
	}
	return nil
}
