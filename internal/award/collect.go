package award

import "strings"

// ParseNames splits a multi-line winner list into names, one per line.
// Lines are trimmed and blank lines dropped.
func ParseNames(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Collect builds certificate records from per-tier winner lists. Records
// are ordered by tier (gold first) and then by line order.
func Collect(winners map[Tier]string, category, issue, theme string) []Record {
	var out []Record
	for _, tier := range Tiers {
		for _, name := range ParseNames(winners[tier]) {
			out = append(out, Record{
				Name:     name,
				Tier:     tier,
				Category: category,
				Issue:    issue,
				Theme:    theme,
			})
		}
	}
	return out
}
