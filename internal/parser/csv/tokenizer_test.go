package csv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kinds renders tokens compactly so expectations stay readable.
func kinds(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.String()
	}
	return out
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		opt  Options
		want []string
	}{
		{
			name: "simple grid",
			in:   "a,b\n1,2\n",
			want: []string{"content(a)", "separator", "content(b)", "linebreak", "content(1)", "separator", "content(2)", "linebreak"},
		},
		{
			name: "crlf runs collapse",
			in:   "a\r\n\r\n\nb",
			want: []string{"content(a)", "linebreak", "content(b)"},
		},
		{
			name: "quoted span keeps quotes and delimiters",
			in:   `"x,y",z`,
			want: []string{`content("x,y")`, "separator", "content(z)"},
		},
		{
			name: "doubled quote does not close",
			in:   `"a""b",c`,
			want: []string{`content("a""b")`, "separator", "content(c)"},
		},
		{
			name: "quoted line break stays in content",
			in:   "\"a\nb\"\n",
			want: []string{"content(\"a\nb\")", "linebreak"},
		},
		{
			name: "single quotes",
			in:   `'it''s';x`,
			opt:  Options{Delimiter: ';'},
			want: []string{`content('it''s')`, "separator", "content(x)"},
		},
		{
			name: "unquoted prefix glued to quoted span",
			in:   `ab"c,d"e`,
			want: []string{`content(ab"c,d")`, "content(e)"},
		},
		{
			name: "quote as last rune closes",
			in:   `x,"abc"`,
			want: []string{"content(x)", "separator", `content("abc")`},
		},
		{
			name: "leading and trailing separators",
			in:   ",x,\n",
			want: []string{"separator", "content(x)", "separator", "linebreak"},
		},
		{
			name: "blank line collapses",
			in:   "a\n \t \nb",
			want: []string{"content(a)", "linebreak", "content(b)"},
		},
		{
			// The backward scan resumes below the kept break, so only one of
			// two consecutive blank lines is removed.
			name: "two blank lines collapse once",
			in:   "a\n \n \nb",
			want: []string{"content(a)", "linebreak", "content( )", "linebreak", "content(b)"},
		},
		{
			name: "empty input",
			in:   "",
			want: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			toks, err := Tokenize(tc.in, tc.opt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, kinds(toks))
		})
	}
}

func TestTokenize_MissingClosingQuote(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"\"abc\n", "x,'abc", `a"bc`, `"a""`} {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			toks, err := Tokenize(in, Options{})
			require.Error(t, err)
			assert.Nil(t, toks)
			assert.True(t, errors.Is(err, ErrMissingClosingQuote))

			var mcq *MissingClosingQuoteError
			require.ErrorAs(t, err, &mcq)
			assert.NotEmpty(t, mcq.Content)
			assert.Contains(t, []rune(in), []rune(mcq.Content)[0])
		})
	}
}

func TestTokenize_NonASCIIDelimiter(t *testing.T) {
	t.Parallel()

	toks, err := Tokenize("ä§ö", Options{Delimiter: '§'})
	require.NoError(t, err)
	assert.Equal(t, []string{"content(ä)", "separator", "content(ö)"}, kinds(toks))
}
