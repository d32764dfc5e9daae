package dprint

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"bueno/internal/format"
)

// Info describes a loaded plugin as reported by get_plugin_info.
type Info struct {
	Name      string
	Version   string
	ConfigKey string
	HelpURL   string
}

// Diagnostic is one configuration problem reported by a plugin.
type Diagnostic struct {
	Property string
	Message  string
}

func (d Diagnostic) String() string {
	if d.Property == "" {
		return d.Message
	}
	return d.Property + ": " + d.Message
}

// encodeConfig builds the register_config payload.
func encodeConfig(plugin map[string]any, global format.GlobalConfig) ([]byte, error) {
	if plugin == nil {
		plugin = map[string]any{}
	}
	payload := map[string]any{
		"plugin": plugin,
		"global": global.Map(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode plugin config: %w", err)
	}
	return b, nil
}

func decodeInfo(raw []byte) (Info, error) {
	if !gjson.ValidBytes(raw) {
		return Info{}, fmt.Errorf("plugin info: invalid json")
	}
	doc := gjson.ParseBytes(raw)
	info := Info{
		Name:      doc.Get("name").String(),
		Version:   doc.Get("version").String(),
		ConfigKey: doc.Get("configKey").String(),
		HelpURL:   doc.Get("helpUrl").String(),
	}
	if info.Name == "" {
		return info, fmt.Errorf("plugin info: missing name")
	}
	return info, nil
}

func decodeDiagnostics(raw []byte) []Diagnostic {
	var out []Diagnostic
	gjson.ParseBytes(raw).ForEach(func(_, v gjson.Result) bool {
		out = append(out, Diagnostic{
			Property: v.Get("propertyName").String(),
			Message:  v.Get("message").String(),
		})
		return true
	})
	return out
}

func joinDiagnostics(diags []Diagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}
