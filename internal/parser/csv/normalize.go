package csv

import "strings"

// Normalize cleans a single content token:
//
//  1. trims leading and trailing tabs and spaces,
//  2. turns empty text into an absent value,
//  3. strips one layer of surrounding quotes and unescapes doubled quotes,
//  4. folds CRLF and lone CR into LF when foldCR is set.
//
// Separators and line breaks are returned unchanged. Normalizing a token that
// Normalize already produced is a no-op.
func Normalize(t Token, foldCR bool) Token {
	if t.Kind != KindContent || t.normalized {
		return t
	}
	out := Token{Kind: KindContent, normalized: true}
	if t.Text == nil {
		return out
	}

	s := strings.Trim(*t.Text, "\t ")
	if s == "" {
		return out
	}
	if len(s) >= 2 {
		q := rune(s[0])
		if isQuote(q) && rune(s[len(s)-1]) == q {
			qs := string(q)
			s = strings.ReplaceAll(s[1:len(s)-1], qs+qs, qs)
		}
	}
	if foldCR {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	out.Text = &s
	return out
}

// normalizeAll applies Normalize to every token in place.
func normalizeAll(toks []Token, foldCR bool) {
	for i := range toks {
		toks[i] = Normalize(toks[i], foldCR)
	}
}
