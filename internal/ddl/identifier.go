package ddl

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxIdentifierLen is the longest identifier produced by NormalizeIdentifier.
// It matches the PostgreSQL limit, the tightest of the supported backends.
const MaxIdentifierLen = 63

// NormalizeIdentifier turns a column title into a SQL identifier:
//  1. lowercase
//  2. strip accents (NFD, remove Mn, NFC)
//  3. keep [a-z0-9_]; space, dash and dot become one underscore; drop the rest
//  4. a leading digit gets a "c_" prefix
//  5. "col" when nothing is left
//
// Names longer than MaxIdentifierLen keep their first 10 and last 53 bytes.
func NormalizeIdentifier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "c_" + name
	}
	return truncate(name)
}

func truncate(s string) string {
	if len(s) > MaxIdentifierLen {
		return s[:10] + s[len(s)-53:]
	}
	return s
}

// UniqueIdentifiers normalizes every title and disambiguates collisions by
// appending _2, _3, ... in order of appearance.
func UniqueIdentifiers(titles []string) []string {
	out := make([]string, len(titles))
	seen := make(map[string]struct{}, len(titles))
	for i, t := range titles {
		name := NormalizeIdentifier(t)
		if _, dup := seen[name]; dup {
			base := name
			for n := 2; ; n++ {
				suffix := "_" + strconv.Itoa(n)
				cand := base + suffix
				if len(cand) > MaxIdentifierLen {
					cand = base[:MaxIdentifierLen-len(suffix)] + suffix
				}
				if _, taken := seen[cand]; !taken {
					name = cand
					break
				}
			}
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}
