package generator

import "strings"

// DefaultHashtagLimit caps the merged tag set of one post.
const DefaultHashtagLimit = 4

// NormalizeHashtags splits every entry on whitespace, prefixes '#' where it
// is missing and drops duplicates, keeping first-seen order.
func NormalizeHashtags(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range raw {
		for _, tag := range strings.Fields(entry) {
			tag = strings.TrimPrefix(tag, "＃")
			tag = strings.TrimLeft(tag, "#")
			if tag == "" {
				continue
			}
			tag = "#" + tag
			if seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

// MergeHashtags puts fixed tags first, then extra, deduplicated and capped at
// limit (no cap when limit <= 0).
func MergeHashtags(fixed, extra []string, limit int) []string {
	all := make([]string, 0, len(fixed)+len(extra))
	all = append(all, fixed...)
	all = append(all, extra...)
	merged := NormalizeHashtags(all)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// SubthemeHashtag turns a subtheme into a tag, or "" for an empty subtheme.
func SubthemeHashtag(subtheme string) string {
	tags := NormalizeHashtags([]string{strings.ReplaceAll(strings.TrimSpace(subtheme), " ", "")})
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}
