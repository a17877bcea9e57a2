// Package binder provides an echo.Binder that accepts camelCase JSON keys
// from older clients and rewrites them to the snake_case names used by the
// domain models before decoding.
package binder

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
)

// Normalizing wraps echo.DefaultBinder. Path, query and header binding are
// unchanged; only JSON bodies are rewritten.
type Normalizing struct {
	echo.DefaultBinder
}

func New() *Normalizing { return &Normalizing{} }

func (b *Normalizing) Bind(i interface{}, c echo.Context) error {
	req := c.Request()
	if req.Body != nil && req.Body != http.NoBody &&
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "could not read request body").SetInternal(err)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			raw, err = NormalizeJSON(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
			}
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
		req.ContentLength = int64(len(raw))
	}
	return b.DefaultBinder.Bind(i, c)
}

// NormalizeJSON rewrites every object key in doc to snake_case. When both
// spellings of a key are present the snake_case one wins.
func NormalizeJSON(doc []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(normalize(v))
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			sk := SnakeCase(k)
			if _, exists := t[sk]; exists && sk != k {
				continue
			}
			out[sk] = normalize(val)
		}
		return out
	case []interface{}:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	default:
		return v
	}
}

// SnakeCase converts "bloodPressure" to "blood_pressure" and "patientID" to
// "patient_id". Keys that are already snake_case are returned unchanged.
func SnakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
