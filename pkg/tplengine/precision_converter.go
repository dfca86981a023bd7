package tplengine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// maxSafeInteger mirrors JavaScript's Number.MAX_SAFE_INTEGER (2^53 - 1).
// Template output feeding a JS-based editor must not silently truncate
// integers beyond this range, so they're preserved as strings instead.
const maxSafeInteger = int64(1) << 53

var (
	integerLiteralRe = regexp.MustCompile(`^-?\d+$`)
	floatLiteralRe   = regexp.MustCompile(`^-?\d*\.\d+([eE][+-]?\d+)?$|^-?\d+[eE][+-]?\d+$`)
)

// PrecisionConverter converts rendered template strings back into typed
// values without losing integer or decimal precision along the way.
type PrecisionConverter struct{}

func NewPrecisionConverter() *PrecisionConverter {
	return &PrecisionConverter{}
}

// ConvertWithPrecision inspects a single scalar string and returns an int64,
// float64, or the original string when conversion would lose precision.
func (p *PrecisionConverter) ConvertWithPrecision(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return trimmed
	}
	if integerLiteralRe.MatchString(trimmed) {
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err == nil && n > -maxSafeInteger && n < maxSafeInteger {
			return n
		}
		return trimmed
	}
	if floatLiteralRe.MatchString(trimmed) {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err == nil && strconv.FormatFloat(f, 'g', -1, 64) == trimmed {
			return f
		}
		return trimmed
	}
	return s
}

// ConvertJSONWithPrecision decodes a JSON document preserving numeric
// precision per ConvertWithPrecision's rules for every scalar it contains.
func (p *PrecisionConverter) ConvertJSONWithPrecision(jsonStr string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return p.convertValue(raw), nil
}

func (p *PrecisionConverter) convertValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		return p.ConvertWithPrecision(val.String())
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = p.convertValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = p.convertValue(vv)
		}
		return out
	default:
		return v
	}
}
