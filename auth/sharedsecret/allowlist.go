package sharedsecret

import (
	"fmt"
	"regexp"
)

// AllowList decides which user ids may authenticate at all.
//
// Each entry is a regular expression which needs to match at the start of the user id
// (a prefix match, like Python's `re.match`). `@alice:example.org` is thus allowed by an `@alice` entry,
// while entries like `@alice:example\.org$` can be used for exact matching.
type AllowList struct {
	patterns []string
	regexes  []*regexp.Regexp
}

func NewAllowList(patterns []string) (*AllowList, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		regex, err := regexp.Compile(fmt.Sprintf("^(?:%s)", pattern))
		if err != nil {
			return nil, fmt.Errorf("failed compiling %q: %s", pattern, err)
		}
		regexes = append(regexes, regex)
	}

	return &AllowList{
		patterns: append([]string{}, patterns...),
		regexes:  regexes,
	}, nil
}

// IsAllowed tells if at least one entry matches the user id.
// An empty (or nil) allow-list allows nobody.
func (me *AllowList) IsAllowed(userId string) bool {
	if me == nil {
		return false
	}
	for _, regex := range me.regexes {
		if regex.MatchString(userId) {
			return true
		}
	}
	return false
}

func (me *AllowList) Patterns() []string {
	return append([]string{}, me.patterns...)
}

func (me *AllowList) Len() int {
	return len(me.regexes)
}
