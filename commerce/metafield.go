package commerce

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var metafieldPart = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Metafield identifies a product metafield.
type Metafield struct {
	Namespace string
	Key       string
}

// MetafieldValue is the raw value/type pair returned by the platform.
type MetafieldValue struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// ParseMetafieldDescriptor splits "namespace.key" at the first dot. The key
// may itself contain dots. Invalid descriptors report false.
func ParseMetafieldDescriptor(descriptor string) (Metafield, bool) {
	ns, key, ok := strings.Cut(descriptor, ".")
	if !ok {
		return Metafield{}, false
	}
	ns, key = strings.TrimSpace(ns), strings.TrimSpace(key)
	if ns == "" || key == "" || !metafieldPart.MatchString(ns) || !metafieldPart.MatchString(key) {
		return Metafield{}, false
	}
	return Metafield{Namespace: ns, Key: key}, true
}

// MetafieldValues flattens a metafield into display strings:
// list and json types decode as JSON, numbers are kept verbatim, anything
// else splits on commas. The result is never nil.
func MetafieldValues(value, typ string) []string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return []string{}
	}

	if strings.HasPrefix(typ, "list.") || typ == "json" {
		if parsed := jsonValues(raw); len(parsed) > 0 {
			return parsed
		}
	}

	if typ == "number_integer" || typ == "number_decimal" {
		return []string{raw}
	}

	var segments []string
	for _, seg := range strings.Split(raw, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return []string{raw}
	}
	return segments
}

func jsonValues(raw string) []string {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil
	}

	var items []json.RawMessage
	switch tok {
	case json.Delim('['):
		for dec.More() {
			var item json.RawMessage
			if err := dec.Decode(&item); err != nil {
				return nil
			}
			items = append(items, item)
		}
	case json.Delim('{'):
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil
			}
			var item json.RawMessage
			if err := dec.Decode(&item); err != nil {
				return nil
			}
			items = append(items, item)
		}
	case nil:
		return nil
	default:
		if s, ok := tok.(string); ok {
			return []string{s}
		}
		return []string{stringifyToken(tok)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringifyRaw(item); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringifyRaw(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, item); err != nil {
		return string(item)
	}
	return buf.String()
}

func stringifyToken(tok json.Token) string {
	switch v := tok.(type) {
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
