package invite

import (
	"regexp"
	"strings"
)

const invitePath = "/invite/"

var pathTokenPattern = regexp.MustCompile(`/invite/([^/?]+)`)

// Linker builds and parses the external forms of an invitation link.
type Linker struct {
	urlPrefix    string // https://<domain>/invite/
	schemePrefix string // <scheme>://invite/
}

func NewLinker(domain, scheme string) *Linker {
	return &Linker{
		urlPrefix:    strings.TrimSuffix(domain, "/") + invitePath,
		schemePrefix: scheme + "://invite/",
	}
}

// BuildLink renders the canonical universal-link form.
func (l *Linker) BuildLink(token string) string {
	return l.urlPrefix + token
}

// BuildSchemeLink renders the custom-scheme fallback form.
func (l *Linker) BuildSchemeLink(token string) string {
	return l.schemePrefix + token
}

// ExtractToken accepts a universal link, a scheme link, a bare /invite/
// path, or a raw token, and returns the token portion verbatim. Prefixes
// are tried most-specific first so a token that happens to begin with the
// scheme text is not mis-stripped when wrapped in a universal link. No
// validation happens here; an unknown token surfaces as an invalid
// invitation at redemption, not as a parse error.
func (l *Linker) ExtractToken(input string) string {
	if token, ok := strings.CutPrefix(input, l.urlPrefix); ok {
		return token
	}
	if token, ok := strings.CutPrefix(input, l.schemePrefix); ok {
		return token
	}
	if strings.Contains(input, invitePath) {
		if m := pathTokenPattern.FindStringSubmatch(input); m != nil {
			return m[1]
		}
	}
	return input
}
