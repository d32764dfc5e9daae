package format

// Directive texts recognized in comments.
const (
	IgnoreNode      = "bueno-fmt-ignore"
	IgnoreFile      = "bueno-fmt-ignore-file"
	IgnoreRangeFrom = "bueno-fmt-ignore-start"
	IgnoreRangeTo   = "bueno-fmt-ignore-end"
)

// SortOrder selects how import/export declarations are ordered.
type SortOrder string

const (
	SortMaintain        SortOrder = "maintain"
	SortCaseSensitive   SortOrder = "caseSensitive"
	SortCaseInsensitive SortOrder = "caseInsensitive"
)

// QuoteProps selects how object property names are quoted.
type QuoteProps string

const (
	QuotePropsPreserve QuoteProps = "preserve"
	QuotePropsAsNeeded QuoteProps = "asNeeded"
)

// TextWrap selects how prose paragraphs are wrapped.
type TextWrap string

const (
	TextWrapAlways   TextWrap = "always"
	TextWrapMaintain TextWrap = "maintain"
	TextWrapNever    TextWrap = "never"
)

// GlobalConfig holds the settings shared by every plugin.
type GlobalConfig struct {
	LineWidth   int
	IndentWidth int
	UseTabs     bool
}

// Map renders the non-zero fields with dprint key names.
func (g GlobalConfig) Map() map[string]any {
	m := map[string]any{"useTabs": g.UseTabs}
	if g.LineWidth > 0 {
		m["lineWidth"] = g.LineWidth
	}
	if g.IndentWidth > 0 {
		m["indentWidth"] = g.IndentWidth
	}
	return m
}

// ScriptConfig configures JavaScript and TypeScript printing.
type ScriptConfig struct {
	Deno              bool
	UseTabs           bool
	QuoteProps        QuoteProps
	ForceSpaceComment bool
	SortImports       SortOrder
	SortExports       SortOrder
	IgnoreNodeComment string
	IgnoreFileComment string
}

// DefaultScriptConfig returns the settings used by bueno fmt.
func DefaultScriptConfig() ScriptConfig {
	return ScriptConfig{
		Deno:              true,
		UseTabs:           true,
		QuoteProps:        QuotePropsAsNeeded,
		ForceSpaceComment: true,
		SortImports:       SortCaseInsensitive,
		SortExports:       SortCaseInsensitive,
		IgnoreNodeComment: IgnoreNode,
		IgnoreFileComment: IgnoreFile,
	}
}

// PluginConfig renders c with dprint-plugin-typescript key names.
func (c ScriptConfig) PluginConfig() map[string]any {
	return map[string]any{
		"deno":                               c.Deno,
		"useTabs":                            c.UseTabs,
		"quoteProps":                         string(c.QuoteProps),
		"commentLine.forceSpaceAfterSlashes": c.ForceSpaceComment,
		"module.sortImportDeclarations":      string(c.SortImports),
		"module.sortExportDeclarations":      string(c.SortExports),
		"ignoreNodeCommentText":              c.IgnoreNodeComment,
		"ignoreFileCommentText":              c.IgnoreFileComment,
	}
}

// GlobalConfig returns the shared settings implied by c.
func (c ScriptConfig) GlobalConfig() GlobalConfig {
	return GlobalConfig{UseTabs: c.UseTabs}
}

// DataConfig configures JSON printing.
type DataConfig struct {
	LineWidth         int
	UseTabs           bool
	ForceSpaceComment bool
	IgnoreNodeComment string
}

// DefaultDataConfig returns the settings used by bueno fmt.
func DefaultDataConfig() DataConfig {
	return DataConfig{
		LineWidth:         80,
		UseTabs:           true,
		ForceSpaceComment: true,
		IgnoreNodeComment: IgnoreNode,
	}
}

// PluginConfig renders c with dprint-plugin-json key names.
func (c DataConfig) PluginConfig() map[string]any {
	return map[string]any{
		"lineWidth":                          c.LineWidth,
		"useTabs":                            c.UseTabs,
		"commentLine.forceSpaceAfterSlashes": c.ForceSpaceComment,
		"ignoreNodeCommentText":              c.IgnoreNodeComment,
	}
}

// GlobalConfig returns the shared settings implied by c.
func (c DataConfig) GlobalConfig() GlobalConfig {
	return GlobalConfig{LineWidth: c.LineWidth, UseTabs: c.UseTabs}
}

// ProseConfig configures Markdown printing.
type ProseConfig struct {
	LineWidth            int
	TextWrap             TextWrap
	IgnoreDirective      string
	IgnoreStartDirective string
	IgnoreEndDirective   string
	IgnoreFileDirective  string
}

// DefaultProseConfig returns the settings used by bueno fmt.
func DefaultProseConfig() ProseConfig {
	return ProseConfig{
		LineWidth:            80,
		TextWrap:             TextWrapAlways,
		IgnoreDirective:      IgnoreNode,
		IgnoreStartDirective: IgnoreRangeFrom,
		IgnoreEndDirective:   IgnoreRangeTo,
		IgnoreFileDirective:  IgnoreFile,
	}
}

// PluginConfig renders c with dprint-plugin-markdown key names.
func (c ProseConfig) PluginConfig() map[string]any {
	return map[string]any{
		"lineWidth":            c.LineWidth,
		"textWrap":             string(c.TextWrap),
		"ignoreDirective":      c.IgnoreDirective,
		"ignoreStartDirective": c.IgnoreStartDirective,
		"ignoreEndDirective":   c.IgnoreEndDirective,
		"ignoreFileDirective":  c.IgnoreFileDirective,
	}
}

// GlobalConfig returns the shared settings implied by c.
func (c ProseConfig) GlobalConfig() GlobalConfig {
	return GlobalConfig{LineWidth: c.LineWidth}
}
