package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"slices"
	"strings"
)

// DefaultMaskFields are masked whatever instrument.log_mask_fields says. They
// carry the plaintext code between issuance and delivery.
var DefaultMaskFields = []string{"otp", "code", "digits", "authorization"}

const maskedValue = "***"

// per-digit template variables d1..d9
var reDigitField = regexp.MustCompile(`^d[0-9]$`)

// Masker hides sensitive fields in log attributes, HTTP headers and JSON
// documents. Field names match case-insensitively at any depth.
type Masker struct {
	fields map[string]struct{}
}

// NewMasker returns a Masker for DefaultMaskFields plus fields.
func NewMasker(fields []string) *Masker {
	m := &Masker{fields: make(map[string]struct{}, len(DefaultMaskFields)+len(fields))}
	for _, f := range slices.Concat(DefaultMaskFields, fields) {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			m.fields[f] = struct{}{}
		}
	}
	return m
}

// Hides reports whether values stored under key are masked.
func (m *Masker) Hides(key string) bool {
	key = strings.ToLower(key)
	if _, ok := m.fields[key]; ok {
		return true
	}
	return reDigitField.MatchString(key)
}

// Header returns a copy of h with sensitive headers masked.
func (m *Masker) Header(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if m.Hides(k) {
			out.Set(k, maskedValue)
		}
	}
	return out
}

// Value walks maps and slices in v, named map types included, and masks
// sensitive keys. Anything else is returned as is.
func (m *Masker) Value(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = m.entry(k, item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = m.Value(item)
		}
		return out
	case []byte:
		return val
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			out[k] = m.entry(k, iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = m.Value(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}

func (m *Masker) entry(k string, v any) any {
	if m.Hides(k) {
		return maskedValue
	}
	return m.Value(v)
}

// JSON re-encodes a JSON object or array with sensitive keys masked. It
// reports false when payload is not JSON.
func (m *Masker) JSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.Value(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Attr masks one slog attribute, descending into groups and JSON strings.
func (m *Masker) Attr(attr slog.Attr) slog.Attr {
	if m.Hides(attr.Key) {
		return slog.String(attr.Key, maskedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			out = append(out, m.Attr(ga))
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := m.JSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch val := attr.Value.Any().(type) {
		case nil, error:
		case []byte:
			if s, ok := m.JSON(val); ok {
				attr.Value = slog.StringValue(s)
			}
		default:
			attr.Value = slog.AnyValue(m.Value(val))
		}
	}

	return attr
}
