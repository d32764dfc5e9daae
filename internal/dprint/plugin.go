package dprint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"golang.org/x/sync/errgroup"

	"bueno/internal/format"
)

// Spec names a plugin binary and the configuration to register with it.
type Spec struct {
	Name   string
	Wasm   []byte
	Plugin map[string]any
	Global format.GlobalConfig
}

// Plugin is a compiled dprint plugin with a pool of ready instances.
// It implements format.Formatter.
type Plugin struct {
	host     *Host
	name     string
	compiled wazero.CompiledModule
	config   []byte
	info     Info

	mu   sync.Mutex
	idle []*instance
}

// Load compiles spec.Wasm, checks the schema version, registers the
// configuration and keeps the validated instance for the first Format call.
func (h *Host) Load(ctx context.Context, spec Spec) (*Plugin, error) {
	compiled, err := h.rt.CompileModule(ctx, spec.Wasm)
	if err != nil {
		return nil, fmt.Errorf("%s: compile: %w", spec.Name, err)
	}
	if _, ok := compiled.ExportedFunctions()[exportVersion]; !ok {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("%s: %w (want version %d)", spec.Name, ErrUnsupportedSchema, SchemaVersion)
	}
	cfg, err := encodeConfig(spec.Plugin, spec.Global)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	p := &Plugin{host: h, name: spec.Name, compiled: compiled, config: cfg}

	in, err := p.instantiate(ctx)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}
	if err := p.inspect(ctx, in); err != nil {
		_ = in.close(ctx)
		_ = compiled.Close(ctx)
		return nil, err
	}
	p.idle = append(p.idle, in)
	return p, nil
}

// LoadAll loads specs concurrently. Results keep the order of specs.
func (h *Host) LoadAll(ctx context.Context, specs []Spec) ([]*Plugin, error) {
	plugins := make([]*Plugin, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			p, err := h.Load(gctx, spec)
			if err != nil {
				return err
			}
			// индекс уникален для каждой горутины
			plugins[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, p := range plugins {
			if p != nil {
				_ = p.Close(ctx)
			}
		}
		return nil, err
	}
	return plugins, nil
}

// Name returns the name the plugin was loaded under.
func (p *Plugin) Name() string { return p.name }

// Info returns what the plugin reported about itself.
func (p *Plugin) Info() Info { return p.info }

// Format implements format.Formatter. Plugin failures are reported as
// syntax errors since dprint plugins only fail on input they cannot parse.
func (p *Plugin) Format(ctx context.Context, ext, text string) (format.Result, error) {
	if err := ctx.Err(); err != nil {
		return format.NoChange(), err
	}
	in, err := p.acquire(ctx)
	if err != nil {
		return format.NoChange(), err
	}
	res, err := p.formatWith(ctx, in, ext, text)
	var se *format.SyntaxError
	if err != nil && !errors.As(err, &se) {
		// после ловушки состояние инстанса не определено
		_ = in.close(ctx)
		return res, err
	}
	p.release(in)
	return res, err
}

func (p *Plugin) formatWith(ctx context.Context, in *instance, ext, text string) (format.Result, error) {
	if err := in.writeShared(ctx, []byte(format.FakePath(ext))); err != nil {
		return format.NoChange(), fmt.Errorf("%s: %w", p.name, err)
	}
	if _, err := in.call(ctx, exportSetFilePath); err != nil {
		return format.NoChange(), fmt.Errorf("%s: %w", p.name, err)
	}
	if err := in.writeShared(ctx, []byte(text)); err != nil {
		return format.NoChange(), fmt.Errorf("%s: %w", p.name, err)
	}
	code, err := in.call(ctx, exportFormat, configID)
	if err != nil {
		return format.NoChange(), fmt.Errorf("%s: %w", p.name, err)
	}
	switch code {
	case resultNoChange:
		return format.NoChange(), nil
	case resultChange:
		out, err := in.readMessage(ctx, exportFormattedText)
		if err != nil {
			return format.NoChange(), fmt.Errorf("%s: %w", p.name, err)
		}
		return format.Compare(text, string(out)), nil
	case resultError:
		msg, err := in.readMessage(ctx, exportErrorText)
		if err != nil {
			return format.NoChange(), fmt.Errorf("%s: %w", p.name, err)
		}
		lang, _ := format.LanguageForExt(ext)
		return format.NoChange(), &format.SyntaxError{Lang: lang, Offset: -1, Msg: string(msg)}
	default:
		return format.NoChange(), fmt.Errorf("%s: unexpected format result %d", p.name, code)
	}
}

// Close releases idle instances and the compiled module.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, in := range idle {
		errs = append(errs, in.close(ctx))
	}
	errs = append(errs, p.compiled.Close(ctx))
	return errors.Join(errs...)
}

func (p *Plugin) acquire(ctx context.Context) (*instance, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		in := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return in, nil
	}
	p.mu.Unlock()

	in, err := p.instantiate(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.register(ctx, in); err != nil {
		_ = in.close(ctx)
		return nil, err
	}
	return in, nil
}

func (p *Plugin) release(in *instance) {
	in.local, in.formatted, in.failure = nil, nil, ""
	p.mu.Lock()
	p.idle = append(p.idle, in)
	p.mu.Unlock()
}

func (p *Plugin) instantiate(ctx context.Context) (*instance, error) {
	mod, err := p.host.rt.InstantiateModule(ctx, p.compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize"))
	if err != nil {
		return nil, fmt.Errorf("%s: instantiate: %w", p.name, err)
	}
	return &instance{mod: mod}, nil
}

// inspect validates a fresh instance: schema version, plugin info and
// configuration diagnostics.
func (p *Plugin) inspect(ctx context.Context, in *instance) error {
	version, err := in.call(ctx, exportVersion)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("%s: %w (got version %d)", p.name, ErrUnsupportedSchema, version)
	}
	raw, err := in.readMessage(ctx, exportPluginInfo)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if p.info, err = decodeInfo(raw); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if err := p.register(ctx, in); err != nil {
		return err
	}
	raw, err = in.readMessage(ctx, exportDiagnostics, configID)
	if err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if diags := decodeDiagnostics(raw); len(diags) > 0 {
		return fmt.Errorf("%s: invalid configuration: %s", p.name, joinDiagnostics(diags))
	}
	return nil
}

func (p *Plugin) register(ctx context.Context, in *instance) error {
	if err := in.writeShared(ctx, p.config); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	if _, err := in.call(ctx, exportRegisterConfig, configID); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	return nil
}
