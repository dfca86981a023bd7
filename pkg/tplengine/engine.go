// Package tplengine renders Go templates against workflow data, with two
// extensions the plain text/template package doesn't give you for free:
// hyphenated map keys (".user-profile.name") and automatic JSON
// normalization of rendered results that happen to be JSON documents.
package tplengine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Format hints at the output document shape a template belongs to.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Engine renders templates and resolves workflow data references.
type Engine struct {
	format            Format
	preservePrecision bool
	templates         map[string]*template.Template
	globals           map[string]any
}

// NewEngine creates an Engine for the given format. An empty format is
// retained as-is so callers like ProcessFile can detect it from context.
func NewEngine(format Format) *Engine {
	return &Engine{
		format:    format,
		templates: make(map[string]*template.Template),
		globals:   make(map[string]any),
	}
}

// WithFormat sets the engine's format and returns the engine for chaining.
func (e *Engine) WithFormat(format Format) *Engine {
	e.format = format
	return e
}

// WithPrecisionPreservation toggles whether numeric precision is preserved
// when rendered output is parsed back as JSON.
func (e *Engine) WithPrecisionPreservation(preserve bool) *Engine {
	e.preservePrecision = preserve
	return e
}

// AddGlobalValue registers a value that is merged into every render's
// context under the given key, unless the call-site context overrides it.
func (e *Engine) AddGlobalValue(key string, value any) {
	e.globals[key] = value
}

// HasTemplate reports whether s contains a Go template action.
func HasTemplate(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}

// -----------------------------------------------------------------------------
// Named templates
// -----------------------------------------------------------------------------

// AddTemplate compiles tmplStr and registers it under name.
func (e *Engine) AddTemplate(name, tmplStr string) error {
	tmpl, err := e.newTemplate(name).Parse(preprocessHyphens(tmplStr))
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}
	e.templates[name] = tmpl
	return nil
}

// Render executes the named template previously registered with AddTemplate.
func (e *Engine) Render(name string, ctx map[string]any) (string, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return e.execute(tmpl, ctx)
}

// RenderString compiles and executes tmplStr directly, without registering it.
func (e *Engine) RenderString(tmplStr string, ctx map[string]any) (string, error) {
	if !HasTemplate(tmplStr) {
		return tmplStr, nil
	}
	tmpl, err := e.newTemplate("inline").Parse(preprocessHyphens(tmplStr))
	if err != nil {
		return "", fmt.Errorf("template parse error: %w", err)
	}
	return e.execute(tmpl, ctx)
}

func (e *Engine) newTemplate(name string) *template.Template {
	funcs := sprig.TxtFuncMap()
	funcs["htmlEscape"] = html.EscapeString
	funcs["htmlAttrEscape"] = html.EscapeString
	funcs["jsEscape"] = htmltemplate.JSEscapeString
	return template.New(name).Option("missingkey=error").Funcs(funcs)
}

func (e *Engine) execute(tmpl *template.Template, ctx map[string]any) (string, error) {
	full := e.preprocessContext(ctx)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, full); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return buf.String(), nil
}

// preprocessContext merges the engine's global values and the standard
// workflow namespaces (env/input/output/trigger/tools/tasks/agents) under
// the caller-supplied context, so templates can always reference them even
// when the caller didn't populate every namespace.
func (e *Engine) preprocessContext(ctx map[string]any) map[string]any {
	out := map[string]any{
		"env":     map[string]any{},
		"input":   map[string]any{},
		"output":  map[string]any{},
		"trigger": map[string]any{},
		"tools":   map[string]any{},
		"tasks":   map[string]any{},
		"agents":  map[string]any{},
	}
	for k, v := range e.globals {
		out[k] = v
	}
	for k, v := range ctx {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------
// Hyphenated key support
// -----------------------------------------------------------------------------

var (
	actionRe      = regexp.MustCompile(`(?s)\{\{.*?\}\}`)
	hyphenPathRe  = regexp.MustCompile(`\.[A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z_][A-Za-z0-9_-]*)*`)
)

// preprocessHyphens rewrites hyphenated dotted-path references inside
// template actions (e.g. ".user-profile.name") into index-based lookups,
// since Go template identifiers can't contain hyphens.
func preprocessHyphens(tmpl string) string {
	return actionRe.ReplaceAllStringFunc(tmpl, func(action string) string {
		return hyphenPathRe.ReplaceAllStringFunc(action, func(path string) string {
			if !strings.Contains(path, "-") {
				return path
			}
			return buildIndexExpr(path)
		})
	})
}

func buildIndexExpr(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "."), ".")
	expr := "."
	for i, seg := range segments {
		if i == 0 {
			expr = fmt.Sprintf("(index . %q)", seg)
		} else {
			expr = fmt.Sprintf("(index %s %q)", expr, seg)
		}
	}
	return expr
}

// -----------------------------------------------------------------------------
// String / value processing pipeline
// -----------------------------------------------------------------------------

// ProcessString renders tmplStr and requires the result to be a string
// (rather than a value auto-parsed from JSON).
func (e *Engine) ProcessString(tmplStr string, ctx map[string]any) (string, error) {
	val, err := e.renderAndProcessTemplate(tmplStr, ctx)
	if err != nil {
		return "", err
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("failed to parse template string: result is not a string (got %T)", val)
	}
	return s, nil
}

// ProcessFile reads and renders the template file at path, detecting the
// format from its extension when the engine has none set.
func (e *Engine) ProcessFile(path string, ctx map[string]any) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	eng := e
	if e.format == "" {
		eng = e.WithFormat(detectFormatFromExt(path))
	}
	return eng.ProcessString(string(data), ctx)
}

func detectFormatFromExt(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatText
}

// renderAndProcessTemplate renders tmplStr and, when the result looks like a
// JSON document, parses it into the corresponding Go value instead of
// returning raw text.
func (e *Engine) renderAndProcessTemplate(tmplStr string, ctx map[string]any) (any, error) {
	text, err := e.RenderString(tmplStr, ctx)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(text)
	if looksLikeJSON(trimmed) {
		var parsed any
		if jerr := json.Unmarshal([]byte(trimmed), &parsed); jerr == nil {
			return parsed, nil
		}
	}
	return text, nil
}

func looksLikeJSON(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '{' && s[len(s)-1] == '}') || (s[0] == '[' && s[len(s)-1] == ']')
}

// ParseAny recursively renders every template string found in v (which may
// be nil, a string, a []any, or a map[string]any), leaving other value types
// untouched.
func (e *Engine) ParseAny(v any, ctx map[string]any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return e.parseStringWithFilter(val, ctx)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := e.ParseAny(item, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			r, err := e.ParseAny(item, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return val, nil
	}
}

// ParseMapWithFilter behaves like ParseAny but skips rendering for any key
// (map key, or stringified array index) for which filter returns true.
func (e *Engine) ParseMapWithFilter(input any, ctx map[string]any, filter func(key string) bool) (any, error) {
	return e.parseWithFilter(input, ctx, filter)
}

func (e *Engine) parseWithFilter(v any, ctx map[string]any, filter func(string) bool) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if filter != nil && filter(k) {
				out[k] = item
				continue
			}
			r, err := e.parseValueWithFilter(item, ctx, filter)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			if filter != nil && filter(strconv.Itoa(i)) {
				out[i] = item
				continue
			}
			r, err := e.parseValueWithFilter(item, ctx, filter)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case string:
		return e.parseStringWithFilter(val, ctx)
	default:
		return val, nil
	}
}

func (e *Engine) parseValueWithFilter(v any, ctx map[string]any, filter func(string) bool) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		return e.parseWithFilter(v, ctx, filter)
	case string:
		return e.parseStringWithFilter(v.(string), ctx)
	default:
		return v, nil
	}
}

// ParseWithJSONHandling parses v as JSON first (so that unrendered template
// actions embedded inside JSON string values survive), falling back to
// rendering v as a template when it isn't valid JSON on its own.
func (e *Engine) ParseWithJSONHandling(v string, ctx map[string]any) (any, error) {
	trimmed := strings.TrimSpace(v)
	if looksLikeJSON(trimmed) {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return e.ParseAny(parsed, ctx)
		}
	}
	if !HasTemplate(v) {
		return v, nil
	}
	return e.renderAndProcessTemplate(v, ctx)
}

// -----------------------------------------------------------------------------
// Task-reference aware deferred resolution
// -----------------------------------------------------------------------------

var (
	runtimeRefRe = regexp.MustCompile(`\{\{[^}]*\.tasks\.`)
	taskRefRe    = regexp.MustCompile(`\.tasks\.([A-Za-z0-9_-]+)`)
)

// containsRuntimeReferences reports whether s references `.tasks.*` data
// that is only available once sibling tasks have executed.
func containsRuntimeReferences(s string) bool {
	return runtimeRefRe.MatchString(s)
}

// extractTaskReferences returns the distinct task IDs referenced via
// `.tasks.<id>` in s, in first-seen order.
func extractTaskReferences(s string) []string {
	matches := taskRefRe.FindAllStringSubmatch(s, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m[1]
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func areAllTasksAvailable(ids []string, tasks map[string]any) bool {
	for _, id := range ids {
		if _, ok := tasks[id]; !ok {
			return false
		}
	}
	return true
}

// canResolveTaskReferencesNow reports whether every `.tasks.*` reference in
// v already has a corresponding entry in ctx["tasks"].
func (e *Engine) canResolveTaskReferencesNow(v string, ctx map[string]any) bool {
	if ctx == nil {
		return false
	}
	raw, ok := ctx["tasks"]
	if !ok {
		return false
	}
	var tasks map[string]any
	switch t := raw.(type) {
	case map[string]any:
		tasks = t
	case *map[string]any:
		if t == nil {
			return false
		}
		tasks = *t
	default:
		return false
	}
	return areAllTasksAvailable(extractTaskReferences(v), tasks)
}

// parseStringWithFilter renders v unless it references sibling-task data
// that isn't resolvable yet, in which case it is returned unchanged so a
// later pass (once those tasks have run) can resolve it.
func (e *Engine) parseStringWithFilter(v string, ctx map[string]any) (any, error) {
	if !HasTemplate(v) {
		return v, nil
	}
	if containsRuntimeReferences(v) && !e.canResolveTaskReferencesNow(v, ctx) {
		return v, nil
	}
	return e.parseStringValue(v, ctx)
}

// -----------------------------------------------------------------------------
// Type-preserving simple references
// -----------------------------------------------------------------------------

var simpleObjectRefRe = regexp.MustCompile(`^\{\{\s*(\.[A-Za-z0-9_.\-\[\]]+)\s*\}\}$`)

// isSimpleObjectReference reports whether s is exactly a single unfiltered
// dotted-path reference, e.g. "{{ .tasks.x.output }}".
func (e *Engine) isSimpleObjectReference(s string) bool {
	return simpleObjectRefRe.MatchString(strings.TrimSpace(s))
}

// extractObjectFromContext resolves the dotted path referenced by tmplStr
// directly against ctx, preserving the value's original type. Returns nil
// when tmplStr isn't a simple reference or the path can't be resolved.
func (e *Engine) extractObjectFromContext(tmplStr string, ctx map[string]any) any {
	m := simpleObjectRefRe.FindStringSubmatch(strings.TrimSpace(tmplStr))
	if m == nil {
		return nil
	}
	path := strings.TrimPrefix(m[1], ".")
	var cur any = ctx
	for _, part := range strings.Split(path, ".") {
		cur = resolveMapValue(cur, part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func resolveMapValue(cur any, key string) any {
	switch v := cur.(type) {
	case map[string]any:
		return v[key]
	case *map[string]any:
		if v == nil {
			return nil
		}
		return (*v)[key]
	default:
		return nil
	}
}

// prepareValueForTemplate normalizes a resolved context value before it is
// handed back to a caller; plain values pass through unchanged.
func (e *Engine) prepareValueForTemplate(obj any) (any, error) {
	return obj, nil
}

// parseStringValue resolves tmplStr, preserving the concrete type of the
// referenced value when tmplStr is a simple object reference, and otherwise
// falling back to normal template rendering (with JSON auto-parsing).
func (e *Engine) parseStringValue(tmplStr string, ctx map[string]any) (any, error) {
	if e.isSimpleObjectReference(tmplStr) {
		full := e.preprocessContext(ctx)
		if obj := e.extractObjectFromContext(tmplStr, full); obj != nil {
			return e.prepareValueForTemplate(obj)
		}
	}
	return e.renderAndProcessTemplate(tmplStr, ctx)
}
