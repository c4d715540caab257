package csv

// Kind classifies a Token.
type Kind uint8

const (
	// KindContent is a run of cell text, possibly absent.
	KindContent Kind = iota
	// KindSeparator is a single delimiter character.
	KindSeparator
	// KindLineBreak stands for one or more consecutive CR/LF characters.
	KindLineBreak
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindSeparator:
		return "separator"
	case KindLineBreak:
		return "linebreak"
	default:
		return "unknown"
	}
}

// Token is the smallest classified unit produced by Tokenize.
//
// Text is only meaningful for KindContent. A nil Text marks an absent value,
// which is different from an empty string.
type Token struct {
	Kind Kind
	Text *string

	// normalized is set by Normalize so a second pass leaves the token alone.
	normalized bool
}

// Content returns a content token holding s.
func Content(s string) Token { return Token{Kind: KindContent, Text: &s} }

// NullContent returns a content token without text.
func NullContent() Token { return Token{Kind: KindContent} }

// Separator returns a delimiter token.
func Separator() Token { return Token{Kind: KindSeparator} }

// LineBreak returns a line break token.
func LineBreak() Token { return Token{Kind: KindLineBreak} }

// IsContent reports whether t is a content token.
func (t Token) IsContent() bool { return t.Kind == KindContent }

// Value returns the token text and whether it is present.
func (t Token) Value() (string, bool) {
	if t.Kind != KindContent || t.Text == nil {
		return "", false
	}
	return *t.Text, true
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case KindContent:
		if t.Text == nil {
			return "content(<nil>)"
		}
		return "content(" + *t.Text + ")"
	default:
		return t.Kind.String()
	}
}

func strptr(s string) *string { return &s }
