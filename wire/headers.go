package wire

import "sort"

// Headers is a case-insensitive header map. Keys are normalized to
// their canonical form (Content-Length, not content-length) before
// insertion and lookup. Setting an existing key overwrites it, so
// duplicate header lines collapse to the last occurrence.
type Headers struct{ underlying map[string]string }

func NewHeaders(initial map[string]string) Headers {
	h := Headers{underlying: make(map[string]string, len(initial))}
	for k, v := range initial {
		h.Set(k, v)
	}
	return h
}

func (h *Headers) Get(key string) (value string, ok bool) {
	value, ok = h.underlying[canonical(key)]
	return
}

func (h *Headers) Set(key, value string) {
	if h.underlying == nil {
		h.underlying = make(map[string]string)
	}
	h.underlying[canonical(key)] = value
}

func (h *Headers) Del(key string) {
	delete(h.underlying, canonical(key))
}

func (h *Headers) Len() int { return len(h.underlying) }

// Fields returns all key-value pairs ordered by key. Insertion order is
// not preserved by the map, so a stable order keeps output predictable.
func (h *Headers) Fields() []Field {
	fields := make([]Field, 0, len(h.underlying))
	for k, v := range h.underlying {
		fields = append(fields, Field{Name: k, Value: v})
	}

	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	return fields
}

func canonical(s string) string {
	if !isValidToken(s) {
		return s
	}
	return toCanonicalFieldName(s)
}

// This only works for a valid token.
func toCanonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}
