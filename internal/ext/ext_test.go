package ext

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dop251/goja"
)

// recordingSources returns sources where every script appends its own
// specifier to globalThis.order.
func recordingSources(exts ...Extension) fstest.MapFS {
	files := fstest.MapFS{}
	for _, e := range exts {
		for _, s := range e.Scripts {
			files[e.Name+"/"+s] = &fstest.MapFile{
				Data: fmt.Appendf(nil, "globalThis.order = globalThis.order || [];\nglobalThis.order.push(%q);\n", e.Specifier(s)),
			}
		}
	}
	return files
}

func stubOps(exts ...Extension) OpTable {
	table := OpTable{}
	for _, e := range exts {
		for _, name := range e.Ops {
			table[name] = func(*goja.Runtime, *OpState, []goja.Value) (any, error) {
				return name, nil
			}
		}
	}
	return table
}

func TestManifestIsValid(t *testing.T) {
	if err := Validate(Manifest()...); err != nil {
		t.Fatalf("manifest invalid: %v", err)
	}
	got := Manifest()
	if len(got) != 2 || got[0].Name != "bueno" || got[1].Name != "bueno_cleanup" {
		t.Fatalf("unexpected manifest order: %+v", got)
	}
	if len(Bueno.Ops) != 8 {
		t.Fatalf("want 8 ops, got %d", len(Bueno.Ops))
	}
}

func TestInstallBindsOpsAndOrdersScripts(t *testing.T) {
	rt := goja.New()
	exts := Manifest()
	if _, err := Install(rt, recordingSources(exts...), stubOps(exts...), exts...); err != nil {
		t.Fatalf("install: %v", err)
	}

	var order []string
	if err := rt.ExportTo(rt.Get("order"), &order); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"ext:bueno/bueno.js",
		"ext:bueno/io/mod.js",
		"ext:bueno/io/stdio.js",
		"ext:bueno/fs/mod.js",
		"ext:bueno/console/mod.js",
		"ext:bueno/console/printer.js",
		"ext:bueno/console/formatter.js",
		"ext:bueno/console/table.js",
		"ext:bueno/performance/mod.js",
		"ext:bueno/runtime.js",
		"ext:bueno_cleanup/cleanup.js",
	}
	if !slices.Equal(order, want) {
		t.Fatalf("order = %v\nwant %v", order, want)
	}

	for _, name := range Bueno.Ops {
		v, err := rt.RunString("__bueno.ops." + name + "()")
		if err != nil {
			t.Fatalf("call %s: %v", name, err)
		}
		if v.String() != name {
			t.Fatalf("%s returned %q", name, v.String())
		}
	}
}

func TestInstallSeedsTimeOrigin(t *testing.T) {
	before := time.Now()
	rt := goja.New()
	ops := stubOps(Bueno)
	ops["op_time_origin"] = func(_ *goja.Runtime, s *OpState, _ []goja.Value) (any, error) {
		origin, ok := Borrow[TimeOrigin](s)
		if !ok {
			return nil, errors.New("no time origin")
		}
		return origin.Wall.UnixMilli(), nil
	}

	state, err := Install(rt, recordingSources(Bueno), ops, Bueno)
	if err != nil {
		t.Fatal(err)
	}
	origin, ok := Borrow[TimeOrigin](state)
	if !ok {
		t.Fatal("time origin missing")
	}
	if origin.Monotonic.Before(before) {
		t.Fatalf("origin %v predates install", origin.Monotonic)
	}
	if origin.Wall != origin.Wall.Round(0) {
		t.Fatal("wall origin keeps a monotonic reading")
	}

	v, err := rt.RunString("__bueno.ops.op_time_origin()")
	if err != nil {
		t.Fatal(err)
	}
	if v.ToInteger() != origin.Wall.UnixMilli() {
		t.Fatalf("op_time_origin = %d, want %d", v.ToInteger(), origin.Wall.UnixMilli())
	}
}

func TestInstallMissingOp(t *testing.T) {
	ops := stubOps(Bueno)
	delete(ops, "op_remove_dir")
	_, err := Install(goja.New(), recordingSources(Bueno), ops, Bueno)
	if !errors.Is(err, ErrMissingOp) {
		t.Fatalf("want ErrMissingOp, got %v", err)
	}
}

func TestInstallMissingScript(t *testing.T) {
	sources := recordingSources(BuenoCleanup)
	delete(sources, "bueno_cleanup/cleanup.js")
	_, err := Install(goja.New(), sources, nil, BuenoCleanup)
	if err == nil {
		t.Fatal("expected an error for a missing script")
	}
}

func TestOpErrorsAreThrown(t *testing.T) {
	rt := goja.New()
	ops := stubOps(Bueno)
	ops["op_read_file"] = func(*goja.Runtime, *OpState, []goja.Value) (any, error) {
		return nil, errors.New("denied")
	}
	if _, err := Install(rt, recordingSources(Bueno), ops, Bueno); err != nil {
		t.Fatal(err)
	}
	v, err := rt.RunString(`(() => { try { __bueno.ops.op_read_file("x"); return "no"; } catch (e) { return e.message; } })()`)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "denied" {
		t.Fatalf("caught %q", v.String())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		exts []Extension
	}{
		{"empty name", []Extension{{Scripts: []string{"a.js"}, EntryPoint: "ext:/a.js"}}},
		{"duplicate extension", []Extension{BuenoCleanup, BuenoCleanup}},
		{"duplicate op", []Extension{
			{Name: "a", Ops: []string{"op_x"}, Scripts: []string{"a.js"}, EntryPoint: "ext:a/a.js"},
			{Name: "b", Ops: []string{"op_x"}, Scripts: []string{"b.js"}, EntryPoint: "ext:b/b.js"},
		}},
		{"entry point not listed", []Extension{{Name: "a", Scripts: []string{"a.js"}, EntryPoint: "ext:a/b.js"}}},
		{"entry point of another extension", []Extension{{Name: "a", Scripts: []string{"a.js"}, EntryPoint: "ext:b/a.js"}}},
		{"duplicate script", []Extension{{Name: "a", Scripts: []string{"a.js", "a.js"}, EntryPoint: "ext:a/a.js"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.exts...); !errors.Is(err, ErrInvalidManifest) {
				t.Fatalf("want ErrInvalidManifest, got %v", err)
			}
		})
	}
}

func TestOpStateReplacesByType(t *testing.T) {
	s := NewOpState()
	s.Put(1)
	s.Put(2)
	s.Put("x")
	s.Put(nil)
	if v, ok := Borrow[int](s); !ok || v != 2 {
		t.Fatalf("Borrow[int] = %v, %v", v, ok)
	}
	if v, ok := Borrow[string](s); !ok || v != "x" {
		t.Fatalf("Borrow[string] = %v, %v", v, ok)
	}
	if _, ok := Borrow[float64](s); ok {
		t.Fatal("unexpected float64")
	}
}
