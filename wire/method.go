package wire

// Method is an HTTP request method. The client ships the three methods
// it needs; the protocol logic does not depend on the set being closed.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodDelete Method = "DELETE"
)

func (m Method) String() string { return string(m) }

// ParseMethod matches s against the known methods, case-insensitively
// on input but yielding the canonical uppercase form.
func ParseMethod(s string) (Method, bool) {
	switch Method(upper(s)) {
	case MethodGet:
		return MethodGet, true
	case MethodPost:
		return MethodPost, true
	case MethodDelete:
		return MethodDelete, true
	}
	return "", false
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
