package ops

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Format controls the response rendering format.
//
// This is shared across ops handlers that support multiple output formats.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func normalizeFormat(f Format) Format {
	if f != FormatText && f != FormatJSON {
		return FormatText
	}
	return f
}

func formatFromRequest(r *http.Request, def Format) Format {
	if r == nil || r.URL == nil {
		return def
	}
	switch r.URL.Query().Get("format") {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return def
	}
}

// writeResponse renders resp as JSON, or as text via renderText when resp is OK.
func writeResponse(w http.ResponseWriter, r *http.Request, f Format, code int, ok bool, errMsg string, resp any, renderText func() string) {
	w.Header().Set("Cache-Control", "no-store")
	switch f {
	case FormatJSON:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		if !ok {
			writeTextError(w, errMsg)
			return
		}
		_, _ = w.Write([]byte(renderText()))
	}
}

func writeTextError(w http.ResponseWriter, msg string) {
	if msg != "" {
		_, _ = w.Write([]byte(msg + "\n"))
		return
	}
	_, _ = w.Write([]byte("error\n"))
}

// lineWriter emits stable, greppable lines: <prefix>\t<key>\t<field>\t<value>\n
type lineWriter struct {
	b      strings.Builder
	prefix string
	key    string
}

func (lw *lineWriter) write(field, value string) {
	if field == "" || lw.key == "" {
		return
	}
	lw.b.WriteString(lw.prefix)
	lw.b.WriteByte('\t')
	lw.b.WriteString(lw.key)
	lw.b.WriteByte('\t')
	lw.b.WriteString(field)
	lw.b.WriteByte('\t')
	lw.b.WriteString(value)
	lw.b.WriteByte('\n')
}

func stringifyAny(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return escapeTextField(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	// For everything else, compact JSON is a reasonable one-line representation.
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return escapeTextField(string(b))
}

func escapeTextField(s string) string {
	// Text outputs in ops are line-based and tab-separated.
	// Escape control characters to prevent output injection / parsing ambiguity.
	//
	// Rules:
	//   - '\'  => '\\'
	//   - '\t' => '\t'
	//   - '\r' => '\r'
	//   - '\n' => '\n'
	//   - other ASCII control chars (0x00-0x1f) => \u00XX
	if s == "" {
		return s
	}
	need := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c < 0x20 {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		default:
			if c < 0x20 {
				const hex = "0123456789abcdef"
				b.WriteString(`\u00`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0x0f])
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

func getQueryRequired(r *http.Request, name string) (string, bool) {
	v, ok := getQueryRaw(r, name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// getQueryRaw is like getQueryRequired, but allows empty string values.
func getQueryRaw(r *http.Request, name string) (string, bool) {
	if r == nil || r.URL == nil {
		return "", false
	}
	vs, ok := r.URL.Query()[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
