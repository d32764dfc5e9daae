package dprint

import "errors"

// SchemaVersion is the only plugin ABI revision this host speaks.
const SchemaVersion = 4

// Result codes returned by format and host_format.
const (
	resultNoChange uint32 = 0
	resultChange   uint32 = 1
	resultError    uint32 = 2
)

// Plugin exports.
const (
	exportVersion        = "dprint_plugin_version_4"
	exportSharedPtr      = "get_shared_bytes_ptr"
	exportClearShared    = "clear_shared_bytes"
	exportRegisterConfig = "register_config"
	exportDiagnostics    = "get_config_diagnostics"
	exportPluginInfo     = "get_plugin_info"
	exportSetFilePath    = "set_file_path"
	exportFormat         = "format"
	exportFormattedText  = "get_formatted_text"
	exportErrorText      = "get_error_text"
)

// Host imports, module "dprint".
const (
	importModule        = "dprint"
	importHasCancelled  = "host_has_cancelled"
	importWriteBuffer   = "host_write_buffer"
	importFormat        = "host_format"
	importFormattedText = "host_get_formatted_text"
	importErrorText     = "host_get_error_text"
)

// configID is the id every instance registers its configuration under.
const configID = 1

var (
	// ErrUnsupportedSchema is returned for plugins built against another ABI revision.
	ErrUnsupportedSchema = errors.New("unsupported dprint plugin schema")
	// ErrMissingExport is returned when a plugin lacks a required export.
	ErrMissingExport = errors.New("missing plugin export")
	// ErrMemory is returned when a pointer/length pair falls outside guest memory.
	ErrMemory = errors.New("guest memory access out of range")
)
