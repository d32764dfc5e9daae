package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"bueno/internal/dprint"
	"bueno/internal/driver"
	"bueno/internal/format"
	"bueno/internal/format/jsonfmt"
	"bueno/internal/format/mdfmt"
	"bueno/internal/version"
)

// defaultTypeScriptPlugin is downloaded on first use when bueno.toml names
// no script plugin.
var defaultTypeScriptPlugin = "https://plugins.dprint.dev/typescript-0.93.0.wasm"

// pluginNone as a plugin entry disables the plugin for that language.
const pluginNone = "none"

type pluginSlot struct {
	lang format.Language
	// source is a file path or a URL.
	source string
	// lazy slots are loaded by the first file that needs them.
	lazy bool
	spec dprint.Spec
}

// pluginSlots lists the plugin binaries to use with the configuration each
// one is registered with.
func pluginSlots(cfg *buenoConfig) []pluginSlot {
	script := format.DefaultScriptConfig()
	data := format.DefaultDataConfig()
	prose := format.DefaultProseConfig()
	all := []pluginSlot{
		{lang: format.LangScript, source: cfg.Fmt.Plugins.TypeScript, spec: dprint.Spec{Name: "typescript", Plugin: script.PluginConfig(), Global: script.GlobalConfig()}},
		{lang: format.LangData, source: cfg.Fmt.Plugins.JSON, spec: dprint.Spec{Name: "json", Plugin: data.PluginConfig(), Global: data.GlobalConfig()}},
		{lang: format.LangProse, source: cfg.Fmt.Plugins.Markdown, spec: dprint.Spec{Name: "markdown", Plugin: prose.PluginConfig(), Global: prose.GlobalConfig()}},
	}
	if all[0].source == "" {
		all[0].source, all[0].lazy = defaultTypeScriptPlugin, true
	}
	slots := all[:0]
	for _, s := range all {
		if s.source != "" && s.source != pluginNone {
			slots = append(slots, s)
		}
	}
	return slots
}

// pluginRuntime creates the wasm host on demand and reads plugin binaries
// from disk or from the download cache.
type pluginRuntime struct {
	ctx      context.Context
	embed    format.EmbedFunc
	cacheDir string
	fetcher  *dprint.Fetcher
	logger   *log.Logger

	mu sync.Mutex
	h  *dprint.Host
}

func (rt *pluginRuntime) host() (*dprint.Host, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.h == nil {
		h, err := dprint.NewHost(rt.ctx, dprint.HostOptions{Embed: rt.embed, CacheDir: rt.cacheDir})
		if err != nil {
			return nil, err
		}
		rt.h = h
	}
	return rt.h, nil
}

func (rt *pluginRuntime) read(ctx context.Context, s pluginSlot) (dprint.Spec, error) {
	var (
		wasm []byte
		err  error
	)
	if dprint.IsURL(s.source) {
		rt.logger.Debug("fetching plugin", "name", s.spec.Name, "url", s.source, "cache", rt.fetcher.Dir)
		wasm, err = rt.fetcher.Fetch(ctx, s.source)
	} else {
		wasm, err = os.ReadFile(s.source)
	}
	if err != nil {
		return s.spec, fmt.Errorf("plugin %s: %w", s.spec.Name, err)
	}
	s.spec.Wasm = wasm
	return s.spec, nil
}

// loadLazy serves a lazy slot on its first use.
func (rt *pluginRuntime) loadLazy(ctx context.Context, s pluginSlot) (*dprint.Plugin, error) {
	spec, err := rt.read(ctx, s)
	if err != nil {
		return nil, err
	}
	h, err := rt.host()
	if err != nil {
		return nil, err
	}
	p, err := h.Load(ctx, spec)
	if err != nil {
		return nil, err
	}
	info := p.Info()
	rt.logger.Debug("loaded plugin", "name", p.Name(), "plugin", info.Name, "version", info.Version, "lang", s.lang)
	return p, nil
}

func (rt *pluginRuntime) close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.h == nil {
		return
	}
	if err := rt.h.Close(context.Background()); err != nil {
		rt.logger.Warn("closing plugin runtime", "err", err)
	}
	rt.h = nil
}

// formatStack is the assembled dispatcher plus a description of every
// capability behind it.
type formatStack struct {
	dispatcher   *format.Dispatcher
	capabilities map[format.Language]string
	release      func()
}

// fingerprint identifies the output of this stack for the incremental cache.
func (s *formatStack) fingerprint() driver.Digest {
	parts := []string{version.String()}
	for _, lang := range s.dispatcher.Languages() {
		parts = append(parts, lang.String()+"="+s.capabilities[lang])
	}
	return driver.Fingerprint(parts...)
}

// assembleDispatcher registers the built-in data and prose printers and
// replaces them with dprint plugins where bueno.toml names one. The script
// plugin defaults to a download that happens when the first script file is
// formatted.
func assembleDispatcher(ctx context.Context, cfg *buenoConfig, logger *log.Logger) (*formatStack, error) {
	d := format.NewDispatcher()
	d.Register(format.LangData, jsonfmt.New(format.DefaultDataConfig()))
	d.Register(format.LangProse, mdfmt.New(format.DefaultProseConfig(), d.Embed()))
	rt := &pluginRuntime{
		ctx:      ctx,
		embed:    d.Embed(),
		cacheDir: cfg.Fmt.CacheDir,
		fetcher:  dprint.NewFetcher(cfg.pluginCacheDir()),
		logger:   logger,
	}
	stack := &formatStack{
		dispatcher: d,
		capabilities: map[format.Language]string{
			format.LangData:  fmt.Sprintf("builtin:json %v", format.DefaultDataConfig()),
			format.LangProse: fmt.Sprintf("builtin:markdown %v", format.DefaultProseConfig()),
		},
		release: rt.close,
	}

	var eager []pluginSlot
	for _, s := range pluginSlots(cfg) {
		if !s.lazy {
			eager = append(eager, s)
			continue
		}
		d.Register(s.lang, dprint.NewLazy(func(ctx context.Context) (*dprint.Plugin, error) {
			return rt.loadLazy(ctx, s)
		}))
		stack.capabilities[s.lang] = fmt.Sprintf("dprint:%s %v", s.source, s.spec.Plugin)
	}
	if len(eager) == 0 {
		logger.Debug("no dprint plugins configured", "config", cfg.Source)
		return stack, nil
	}

	specs := make([]dprint.Spec, len(eager))
	for i, s := range eager {
		spec, err := rt.read(ctx, s)
		if err != nil {
			return nil, err
		}
		specs[i] = spec
	}
	host, err := rt.host()
	if err != nil {
		return nil, err
	}
	plugins, err := host.LoadAll(ctx, specs)
	if err != nil {
		rt.close()
		return nil, err
	}
	for i, p := range plugins {
		info := p.Info()
		logger.Debug("loaded plugin", "name", p.Name(), "plugin", info.Name, "version", info.Version, "lang", eager[i].lang)
		d.Register(eager[i].lang, p)
		stack.capabilities[eager[i].lang] = fmt.Sprintf("dprint:%s@%s %v", info.Name, info.Version, eager[i].spec.Plugin)
	}
	return stack, nil
}
