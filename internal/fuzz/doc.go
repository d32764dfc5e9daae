// Package fuzztests houses Go fuzz harnesses for the built-in printers
// (structured data and prose, with the embedded-block bridge in between).
// The goal is to smoke test robustness: no panics, no hangs, and a stable
// result when data is printed twice.
//
// Назначение: прогонять произвольные байты через jsonfmt и mdfmt.
//
// Не делает: генерацию корпусов, запись файлов, вызов dprint-плагинов.
//
// Зависимости: internal/format, internal/format/jsonfmt, internal/format/mdfmt.

package fuzztests
