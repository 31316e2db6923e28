package verification

import "strings"

// Classification labels an email domain relative to the free-mail denylist.
type Classification int

const (
	// Generic is a free-mail provider or an address without a usable domain.
	Generic Classification = iota
	// Corporate is any domain not on the denylist.
	Corporate
)

func (c Classification) String() string {
	switch c {
	case Corporate:
		return "corporate"
	default:
		return "generic"
	}
}

// DomainClassifier decides whether a work email proves employment. The check
// is lexical only: there is no DNS lookup and every unlisted domain is trusted.
type DomainClassifier struct {
	generic map[string]struct{}
}

// NewDomainClassifier builds a classifier from a denylist of generic domains.
func NewDomainClassifier(genericDomains []string) *DomainClassifier {
	generic := make(map[string]struct{}, len(genericDomains))
	for _, d := range genericDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			generic[d] = struct{}{}
		}
	}
	return &DomainClassifier{generic: generic}
}

// Classify returns Corporate when the domain after "@" is not a known
// free-mail provider.
func (c *DomainClassifier) Classify(email string) Classification {
	domain := Domain(email)
	if domain == "" {
		return Generic
	}
	if _, ok := c.generic[domain]; ok {
		return Generic
	}
	return Corporate
}

// Domain returns the lowercased part after the first "@", or "" when absent.
func Domain(email string) string {
	_, domain, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return ""
	}
	return strings.ToLower(domain)
}
