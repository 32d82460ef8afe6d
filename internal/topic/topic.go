// Package topic provides helpers for hub topics: "/"-separated names such as
// "fs/write" or "script/loaded", with wildcard patterns.
package topic

import "strings"

// Topic is a hub topic name.
type Topic string

const (
	// Separator separates topic segments.
	Separator = "/"

	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Parent returns the topic without its last segment, or "" at the top.
//
// Example: "fs/write" -> "fs"
func (t Topic) Parent() Topic {
	idx := strings.LastIndex(string(t), Separator)
	if idx < 0 {
		return ""
	}
	return t[:idx]
}

// Child appends a segment.
func (t Topic) Child(segment string) Topic {
	if t == "" {
		return Topic(segment)
	}
	return t + Separator + Topic(segment)
}

// Base returns the last segment.
func (t Topic) Base() string {
	s := string(t)
	return s[strings.LastIndex(s, Separator)+1:]
}

// HasPrefix reports whether prefix is a whole-segment prefix of t.
func (t Topic) HasPrefix(prefix Topic) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(string(t), string(prefix)) {
		return false
	}
	return len(t) == len(prefix) || string(t[len(prefix)]) == Separator
}

// IsWildcard reports whether the topic is a pattern.
func (t Topic) IsWildcard() bool {
	return strings.Contains(string(t), WildcardSingle)
}

// IsValid reports whether the topic is non-empty and has no empty segments.
func (t Topic) IsValid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// Matches reports whether t matches pattern. "*" matches one segment and
// "**" matches any number of segments, including none.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti := 0
	for pi := 0; pi < len(pattern); pi++ {
		switch pattern[pi] {
		case WildcardMulti:
			for skip := ti; skip <= len(topic); skip++ {
				if matchSegments(topic[skip:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		case WildcardSingle:
			if ti >= len(topic) {
				return false
			}
		default:
			if ti >= len(topic) || topic[ti] != pattern[pi] {
				return false
			}
		}
		ti++
	}
	return ti == len(topic)
}

// Join joins segments into a topic, skipping empty ones.
func Join(segments ...string) Topic {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.Trim(s, Separator); s != "" {
			parts = append(parts, s)
		}
	}
	return Topic(strings.Join(parts, Separator))
}

// Filter returns the topics in ts that match pattern.
func Filter(ts []string, pattern Topic) []string {
	var out []string
	for _, s := range ts {
		if Topic(s).Matches(pattern) {
			out = append(out, s)
		}
	}
	return out
}
