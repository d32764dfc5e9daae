// Package ext declares the native extensions installed into the script
// engine at startup: the host ops each extension exposes and the bootstrap
// scripts it evaluates.
//
// The manifest is data. Op bodies are supplied by the embedder through an
// OpTable when the extensions are installed.
package ext

import (
	"strings"
	"time"
)

// Extension is one entry of the manifest.
type Extension struct {
	Name string `json:"name"`
	// Ops are the host op names bound under globalThis.__bueno.ops.
	Ops []string `json:"ops,omitempty"`
	// Scripts are paths relative to the extension's source directory, in
	// evaluation order.
	Scripts []string `json:"scripts"`
	// EntryPoint is the specifier of the script evaluated last.
	EntryPoint string `json:"entry_point"`
	// State seeds the op state before any op is bound.
	State func(*OpState) `json:"-"`
}

// Specifier returns the module specifier of one of the extension's scripts.
func (e Extension) Specifier(script string) string {
	return "ext:" + e.Name + "/" + script
}

// entryScript returns the script path named by EntryPoint.
func (e Extension) entryScript() (string, bool) {
	return strings.CutPrefix(e.EntryPoint, "ext:"+e.Name+"/")
}

// TimeOrigin records when the runtime started. Monotonic keeps its
// monotonic clock reading for op_high_res_time; Wall is stripped of it for
// op_time_origin.
type TimeOrigin struct {
	Monotonic time.Time
	Wall      time.Time
}

// Bueno is the main runtime extension.
var Bueno = Extension{
	Name: "bueno",
	Ops: []string{
		"op_read_file",
		"op_read_text_file",
		"op_write_file",
		"op_write_text_file",
		"op_remove_file",
		"op_remove_dir",
		"op_high_res_time",
		"op_time_origin",
	},
	Scripts: []string{
		"bueno.js",
		"runtime.js",
		"io/mod.js",
		"io/stdio.js",
		"fs/mod.js",
		"console/mod.js",
		"console/printer.js",
		"console/formatter.js",
		"console/table.js",
		"performance/mod.js",
	},
	EntryPoint: "ext:bueno/runtime.js",
	State: func(s *OpState) {
		now := time.Now()
		s.Put(TimeOrigin{Monotonic: now, Wall: now.Round(0)})
	},
}

// BuenoCleanup runs after Bueno and removes bootstrap-only globals.
var BuenoCleanup = Extension{
	Name:       "bueno_cleanup",
	Scripts:    []string{"cleanup.js"},
	EntryPoint: "ext:bueno_cleanup/cleanup.js",
}

// Manifest returns every extension in installation order.
func Manifest() []Extension {
	return []Extension{Bueno, BuenoCleanup}
}
