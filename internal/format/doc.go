// Package format routes source text to language-specific pretty-printers.
//
// A Dispatcher owns one Formatter capability per Language and picks it by
// file extension. Capabilities are installed at assembly time: the built-in
// printers in jsonfmt and mdfmt, or dprint plugins loaded by internal/dprint.
//
// Purpose: extension table, per-language configuration records, format results
// and the dispatch layer shared by the batch driver and the prose bridge.
// Does not: read or write files, expand globs, parse script languages.
package format
