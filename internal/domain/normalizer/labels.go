package normalizer

import (
	"sort"
	"strings"
)

// labelNormalizer is LabelRules compiled for case-insensitive lookups.
type labelNormalizer struct {
	prefixes []string
	aliases  map[string]string // upper(alias) -> canonical
	known    map[string]string // upper(known) -> canonical
	generic  string
	variants map[string]bool
}

func compileLabels(rules LabelRules) *labelNormalizer {
	ln := &labelNormalizer{
		prefixes: rules.StripPrefixes,
		aliases:  make(map[string]string, len(rules.Aliases)),
		known:    make(map[string]string, len(rules.Known)),
		generic:  strings.ToUpper(strings.TrimSpace(rules.GenericHolder)),
		variants: make(map[string]bool, len(rules.GenericVariants)),
	}

	// Sorted so fold-colliding keys resolve the same way on every run.
	keys := make([]string, 0, len(rules.Aliases))
	for k := range rules.Aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ln.aliases[foldKey(k)] = rules.Aliases[k]
	}

	for _, k := range rules.Known {
		ln.known[foldKey(k)] = k
	}
	for _, v := range rules.GenericVariants {
		ln.variants[foldKey(v)] = true
	}
	return ln
}

// normalize applies, in order: whitespace cleanup, leading prefix strip,
// alias mapping, known-label canonical spelling, and otherwise uppercasing
// with generic cardholder unification.
func (ln *labelNormalizer) normalize(raw string) string {
	s, canonical, ok := ln.resolve(raw)
	if ok {
		return canonical
	}
	key := foldKey(s)
	if ln.generic != "" && ln.variants[key] {
		return ln.generic
	}
	return key
}

// category maps a raw category cell through the same prefix and alias rules
// as labels, so "MC" and "Credit MC" land where the label "MC" does. Unknown
// text keeps its spelling.
func (ln *labelNormalizer) category(raw string) string {
	s, canonical, ok := ln.resolve(raw)
	if ok {
		return canonical
	}
	return s
}

// resolve cleans raw and looks it up in the alias and known tables.
func (ln *labelNormalizer) resolve(raw string) (cleaned, canonical string, ok bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return "", "", true
	}

	for _, p := range ln.prefixes {
		if p == "" || len(s) < len(p) {
			continue
		}
		if strings.EqualFold(s[:len(p)], p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}

	key := foldKey(s)
	if canonical, ok := ln.aliases[key]; ok {
		return s, canonical, true
	}
	if canonical, ok := ln.known[key]; ok {
		return s, canonical, true
	}
	return s, "", false
}

func foldKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
