package models

import "strings"

// fallbackSlug is used when a name contains no ASCII letters or digits.
const fallbackSlug = "workflow"

// Slugify derives a URL-safe identifier from name: lowercased, every run of characters
// outside [a-z0-9] collapsed to a single hyphen, no leading or trailing hyphens.
func Slugify(name string) string {
	var builder strings.Builder

	builder.Grow(len(name))

	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}

			pendingHyphen = false

			builder.WriteRune(r)

			continue
		}

		pendingHyphen = true
	}

	if builder.Len() == 0 {
		return fallbackSlug
	}

	return builder.String()
}
