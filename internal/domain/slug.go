package domain

import "strings"

const maxSlugLen = 80

// Slugify lowercases s and collapses every run of non-alphanumeric ASCII
// characters into a single hyphen.
func Slugify(s string) string {
	var sb strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = sb.Len() > 0
			continue
		}
		if pendingDash {
			sb.WriteByte('-')
			pendingDash = false
		}
		sb.WriteRune(r)
	}

	slug := sb.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}
