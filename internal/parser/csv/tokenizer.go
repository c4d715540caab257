package csv

import "strings"

// Tokenize splits the whole text into content, separator and line break
// tokens. It knows nothing about rows or columns.
//
// Quoted spans keep their quotes; unwrapping happens in Normalize. Unquoted
// text directly followed by a quoted span becomes a single token. The only
// error is *MissingClosingQuoteError.
func Tokenize(text string, opt Options) ([]Token, error) {
	delim := opt.delimiter()
	src := []rune(text)
	toks := make([]Token, 0, max(5, len(src)/5))

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case isLineBreak(c):
			j := i + 1
			for j < len(src) && isLineBreak(src[j]) {
				j++
			}
			toks = append(toks, LineBreak())
			i = j

		case isQuote(c):
			end, err := scanQuoted(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, Content(string(src[i:end])))
			i = end

		case c == delim:
			toks = append(toks, Separator())
			i++

		default:
			j := i
			for j < len(src) && src[j] != delim && !isLineBreak(src[j]) && !isQuote(src[j]) {
				j++
			}
			if j < len(src) && isQuote(src[j]) {
				// Quoted text glued to the run belongs to the same field.
				end, err := scanQuoted(src, j)
				if err != nil {
					return nil, err
				}
				j = end
			}
			toks = append(toks, Content(string(src[i:j])))
			i = j
		}
	}

	return dropBlankLines(toks), nil
}

// scanQuoted returns the end offset (exclusive) of the quoted span opening at
// start. A doubled quote inside the span is an escaped literal. A quote that
// is the very last rune of the buffer always closes the span.
func scanQuoted(src []rune, start int) (int, error) {
	q := src[start]
	pos := start + 1
	for {
		idx := indexRune(src, q, pos)
		if idx < 0 {
			return 0, &MissingClosingQuoteError{Offset: start, Content: string(src[start:])}
		}
		if idx == len(src)-1 {
			return len(src), nil
		}
		if src[idx+1] == q {
			pos = idx + 2
			continue
		}
		return idx + 1, nil
	}
}

func indexRune(src []rune, r rune, from int) int {
	for i := from; i < len(src); i++ {
		if src[i] == r {
			return i
		}
	}
	return -1
}

// dropBlankLines collapses LineBreak, blank Content, LineBreak into a single
// LineBreak. The scan runs backwards over token triples and resumes below the
// kept line break after a collapse, so a run of several blank lines is not
// always reduced to one break.
func dropBlankLines(toks []Token) []Token {
	for i, j, k := len(toks)-1, len(toks)-2, len(toks)-3; k >= 0; i, j, k = i-1, j-1, k-1 {
		if toks[i].Kind != KindLineBreak || toks[k].Kind != KindLineBreak {
			continue
		}
		if !isBlank(toks[j]) {
			continue
		}
		toks = append(toks[:j], toks[i+1:]...)
		i = k
		j = i - 1
		k = i - 2
	}
	return toks
}

func isBlank(t Token) bool {
	if t.Kind != KindContent || t.Text == nil {
		return false
	}
	return strings.TrimFunc(*t.Text, func(r rune) bool { return r <= ' ' }) == ""
}
