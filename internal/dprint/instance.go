package dprint

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	"github.com/tetratelabs/wazero/api"
)

// instance is one instantiated plugin module together with the host-side
// state its imports read and write.
type instance struct {
	mod api.Module

	// local is what host_write_buffer copies into guest memory.
	local []byte
	// formatted and failure hold the outcome of the last host_format call.
	formatted []byte
	failure   string
}

type instanceKey struct{}

func withInstance(ctx context.Context, in *instance) context.Context {
	return context.WithValue(ctx, instanceKey{}, in)
}

func instanceFrom(ctx context.Context) *instance {
	in, _ := ctx.Value(instanceKey{}).(*instance)
	return in
}

func (in *instance) call(ctx context.Context, name string, params ...uint64) (uint32, error) {
	fn := in.mod.ExportedFunction(name)
	if fn == nil {
		return 0, fmt.Errorf("%s: %w", name, ErrMissingExport)
	}
	res, err := fn.Call(withInstance(ctx, in), params...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(res) == 0 {
		return 0, nil
	}
	return api.DecodeU32(res[0]), nil
}

// writeShared resizes the plugin's shared buffer and copies data into it.
func (in *instance) writeShared(ctx context.Context, data []byte) error {
	size, err := safecast.Conv[uint32](len(data))
	if err != nil {
		return fmt.Errorf("shared bytes: %w", err)
	}
	ptr, err := in.call(ctx, exportClearShared, api.EncodeU32(size))
	if err != nil {
		return err
	}
	if !in.mod.Memory().Write(ptr, data) {
		return fmt.Errorf("write %d bytes at %#x: %w", size, ptr, ErrMemory)
	}
	return nil
}

// readShared copies n bytes out of the plugin's shared buffer.
func (in *instance) readShared(ctx context.Context, n uint32) ([]byte, error) {
	ptr, err := in.call(ctx, exportSharedPtr)
	if err != nil {
		return nil, err
	}
	return readMemory(in.mod, ptr, n)
}

// readMessage calls an export that leaves a message in the shared buffer
// and returns its length, then copies the message out.
func (in *instance) readMessage(ctx context.Context, export string, params ...uint64) ([]byte, error) {
	n, err := in.call(ctx, export, params...)
	if err != nil {
		return nil, err
	}
	return in.readShared(ctx, n)
}

func (in *instance) close(ctx context.Context) error {
	return in.mod.Close(ctx)
}

// readMemory copies guest memory so the slice survives later guest writes.
func readMemory(mod api.Module, ptr, n uint32) ([]byte, error) {
	view, ok := mod.Memory().Read(ptr, n)
	if !ok {
		return nil, fmt.Errorf("read %d bytes at %#x: %w", n, ptr, ErrMemory)
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}
