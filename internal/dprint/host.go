package dprint

import (
	"context"
	"fmt"
	"os"

	"fortio.org/safecast"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"bueno/internal/format"
)

// HostOptions configures a Host.
type HostOptions struct {
	// Embed formats code that a plugin hands back through host_format.
	// Nil makes every host_format call report no change.
	Embed format.EmbedFunc
	// CacheDir enables the on-disk compilation cache when non-empty.
	CacheDir string
}

// Host owns the Wasm runtime shared by every plugin.
type Host struct {
	rt    wazero.Runtime
	embed format.EmbedFunc
}

// NewHost creates the runtime and instantiates the WASI shim and the dprint
// import module.
func NewHost(ctx context.Context, opts HostOptions) (*Host, error) {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("wasm cache: %w", err)
		}
		cache, err := wazero.NewCompilationCacheWithDir(opts.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("wasm cache: %w", err)
		}
		cfg = cfg.WithCompilationCache(cache)
	}
	h := &Host{
		rt:    wazero.NewRuntimeWithConfig(ctx, cfg),
		embed: opts.Embed,
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, h.rt); err != nil {
		_ = h.rt.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}
	if err := h.instantiateImports(ctx); err != nil {
		_ = h.rt.Close(ctx)
		return nil, err
	}
	return h, nil
}

// Close releases the runtime and every plugin instance created by it.
func (h *Host) Close(ctx context.Context) error {
	return h.rt.Close(ctx)
}

func (h *Host) instantiateImports(ctx context.Context) error {
	_, err := h.rt.NewHostModuleBuilder(importModule).
		NewFunctionBuilder().WithFunc(h.hasCancelled).Export(importHasCancelled).
		NewFunctionBuilder().WithFunc(h.writeBuffer).Export(importWriteBuffer).
		NewFunctionBuilder().WithFunc(h.format).Export(importFormat).
		NewFunctionBuilder().WithFunc(h.formattedText).Export(importFormattedText).
		NewFunctionBuilder().WithFunc(h.errorText).Export(importErrorText).
		Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate %s imports: %w", importModule, err)
	}
	return nil
}

func (h *Host) hasCancelled(ctx context.Context) uint32 {
	if ctx.Err() != nil {
		return 1
	}
	return 0
}

func (h *Host) writeBuffer(ctx context.Context, m api.Module, ptr uint32) {
	in := instanceFrom(ctx)
	if in == nil {
		return
	}
	m.Memory().Write(ptr, in.local)
}

func (h *Host) formattedText(ctx context.Context) uint32 {
	in := instanceFrom(ctx)
	if in == nil {
		return 0
	}
	in.local = in.formatted
	return lengthOf(in.local)
}

func (h *Host) errorText(ctx context.Context) uint32 {
	in := instanceFrom(ctx)
	if in == nil {
		return 0
	}
	in.local = []byte(in.failure)
	return lengthOf(in.local)
}

// format serves host_format: the plugin asks the host to format a nested
// file, typically a code block. The range and override config are ignored;
// nested text is always formatted whole with the host's configuration.
func (h *Host) format(ctx context.Context, m api.Module, pathPtr, pathLen, _, _, _, _, textPtr, textLen uint32) uint32 {
	in := instanceFrom(ctx)
	if in == nil {
		return resultNoChange
	}
	in.formatted, in.failure = nil, ""
	if h.embed == nil {
		return resultNoChange
	}
	path, err := readMemory(m, pathPtr, pathLen)
	if err != nil {
		in.failure = err.Error()
		return resultError
	}
	text, err := readMemory(m, textPtr, textLen)
	if err != nil {
		in.failure = err.Error()
		return resultError
	}
	res, err := h.embed(ctx, format.ExtOf(string(path)), string(text))
	if err != nil {
		in.failure = err.Error()
		return resultError
	}
	out, ok := res.Text()
	if !ok {
		return resultNoChange
	}
	in.formatted = []byte(out)
	return resultChange
}

// lengthOf reports a buffer length to the guest. Buffers handed to the guest
// never exceed its 32-bit address space.
func lengthOf(b []byte) uint32 {
	n, err := safecast.Conv[uint32](len(b))
	if err != nil {
		return 0
	}
	return n
}
