// Package dprint runs dprint Wasm formatter plugins (plugin schema version 4)
// inside a wazero runtime and exposes each loaded plugin as a
// format.Formatter.
//
// A Host owns the runtime, the WASI shim and the "dprint" import module. The
// host_format import re-enters the format dispatcher through the Embed bridge,
// which is how the markdown plugin formats code blocks in other languages.
//
// Plugin instances are not safe for concurrent use. Every Plugin keeps a pool
// of instances and hands a free one to each Format call, so nested calls into
// the same plugin (markdown inside markdown) get their own instance.
//
// Plugins named by URL are downloaded once by a Fetcher into the plugin
// cache directory. Lazy defers loading a plugin until the first file that
// needs it.
package dprint
