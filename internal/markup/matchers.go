package markup

import "regexp"

// Matcher recognizes one textual encoding of an image reference token.
// Adding a new encoding is a single RegisterMatcher call; Strip and Replace
// pick it up automatically.
type Matcher struct {
	Kind    string
	Pattern func(token string) *regexp.Regexp
}

// defaultMatchers covers the known encodings of an image reference. The
// bare token comes last so the richer forms are consumed whole before a
// plain-token pass catches leftovers.
func defaultMatchers() []Matcher {
	return []Matcher{
		{
			Kind: "markdown",
			Pattern: func(token string) *regexp.Regexp {
				return regexp.MustCompile(`!\[[^\]]*\]\(` + regexp.QuoteMeta(token) + `\)`)
			},
		},
		{
			Kind: "bbcode",
			Pattern: func(token string) *regexp.Regexp {
				return regexp.MustCompile(`(?i)\[img[^\]]*\]` + regexp.QuoteMeta(token) + `\[/img\]`)
			},
		},
		{
			Kind: "bare",
			Pattern: func(token string) *regexp.Regexp {
				return regexp.MustCompile(regexp.QuoteMeta(token))
			},
		},
	}
}
