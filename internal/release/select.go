package release

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/kaleido/internal/platform"
)

// Criteria are the tokens an asset name must contain.
type Criteria struct {
	Arch   string
	OS     string
	ABI    string // empty: not required
	Prefix string // empty: not required
}

// CriteriaFor builds criteria from a host signature and an optional prefix.
func CriteriaFor(sig platform.Signature, prefix string) Criteria {
	return Criteria{
		Arch:   sig.Arch,
		OS:     platform.OSToken(sig.OS),
		ABI:    sig.ABI,
		Prefix: prefix,
	}
}

// required returns the non-empty tokens of c.
func (c Criteria) required() []string {
	tokens := []string{c.Arch, platform.OSToken(c.OS)}
	if c.ABI != "" {
		tokens = append(tokens, c.ABI)
	}
	if c.Prefix != "" {
		tokens = append(tokens, c.Prefix)
	}
	return tokens
}

// Tokens splits an asset file name on '-' and '.'.
func Tokens(name string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '.' }) {
		set[tok] = true
	}
	return set
}

// Matches reports whether asset carries every required token as a whole token.
func (c Criteria) Matches(asset Asset) bool {
	tokens := Tokens(asset.Name)
	for _, want := range c.required() {
		if !tokens[want] {
			return false
		}
	}
	return true
}

// Select returns the first asset matching c. There is no ranking.
func Select(assets []Asset, c Criteria) (Asset, error) {
	for _, a := range assets {
		if c.Matches(a) {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("%w: need tokens %s", ErrNoMatchingAsset, strings.Join(c.required(), ","))
}
