package normalizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ColumnMap maps a canonical field to its column index in a header row.
type ColumnMap map[Field]int

// Index returns the column for f, or -1 when it was not located.
func (c ColumnMap) Index(f Field) int {
	if idx, ok := c[f]; ok {
		return idx
	}
	return -1
}

// Has reports whether f was located.
func (c ColumnMap) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// Missing returns the fields from required that were not located.
func (c ColumnMap) Missing(required []Field) []Field {
	var missing []Field
	for _, f := range required {
		if !c.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// ResolveColumns builds a ColumnMap for header. Aliases are tried in order and
// the first header cell matching an alias wins; unresolved fields are absent.
func ResolveColumns(header []string, cfg DatasetConfig) ColumnMap {
	cols := make(ColumnMap)
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = headerKey(h, cfg.HeaderMatch)
	}

	for _, field := range Fields {
		for _, alias := range cfg.Aliases[field] {
			want := headerKey(alias, cfg.HeaderMatch)
			if want == "" {
				continue
			}
			if idx := indexOf(keys, want); idx >= 0 {
				cols[field] = idx
				break
			}
		}
	}
	return cols
}

func headerKey(s string, mode HeaderMatch) string {
	if mode != HeaderMatchFold {
		return s
	}
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func indexOf(keys []string, want string) int {
	for i, k := range keys {
		if k == want {
			return i
		}
	}
	return -1
}
