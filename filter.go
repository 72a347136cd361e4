package evtrc

import (
	"regexp"
	"strings"

	"github.com/evtrc/evtrc/internal/evdiag"
)

type filterRule struct {
	text    string // token as written, including any +/- prefix
	disable bool
	re      *regexp.Regexp
}

// Filter is an ordered list of enable/disable rules applied to category
// names. It is built from a comma-separated list of regex patterns, each
// optionally prefixed with '+' (enable, the default) or '-' (disable).
// Matching is an unanchored regex search, and the first matching rule
// wins: later rules with a different verdict are ignored for that name.
//
// The zero Filter has no rules and classifies every name as unmatched,
// which leaves categories enabled.
type Filter struct {
	list  string
	rules []filterRule
}

// NewFilter parses a comma-separated pattern list into a filter. Tokens
// are trimmed of surrounding whitespace; empty tokens are skipped. A token
// whose pattern fails to compile is reported to the diagnostic channel and
// dropped, and the rest of the filter remains usable.
func NewFilter(list string) Filter {
	f := Filter{list: list}

	for _, token := range strings.Split(list, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		pattern, disable := token, false
		switch pattern[0] {
		case '-':
			pattern, disable = pattern[1:], true
		case '+':
			pattern = pattern[1:]
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			evdiag.Errorf("category filter pattern %q: %v", token, err)
			continue
		}

		f.rules = append(f.rules, filterRule{text: token, disable: disable, re: re})
	}

	return f
}

// String returns the pattern list the filter was built from.
func (f Filter) String() string {
	return f.list
}

// Count returns the number of compiled rules.
func (f Filter) Count() int {
	return len(f.rules)
}

// Classify tests a category name against the rules in insertion order.
// The first rule whose pattern matches decides: matched is true, and
// enabled is false only for a '-' rule. If no rule matches, or the filter
// has no rules, the verdict is (false, true): unmatched names default to
// enabled.
func (f Filter) Classify(name string) (matched, enabled bool) {
	for _, rule := range f.rules {
		if rule.re.MatchString(name) {
			return true, !rule.disable
		}
	}
	return false, true
}

// Match reports whether the name matches a rule and that rule enables it.
func (f Filter) Match(name string) bool {
	matched, enabled := f.Classify(name)
	return matched && enabled
}
