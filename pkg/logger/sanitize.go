package logger

import (
	"strings"
)

// SanitizedIdentifier masks a login identifier for logging. Emails become
// "u***@***.edu"; index numbers keep the department/programme prefix and
// mask the sequence ("CS/ITC/21/****").
func SanitizedIdentifier(identifier string) string {
	if strings.Contains(identifier, "@") {
		return sanitizedEmail(identifier)
	}
	if strings.Contains(identifier, "/") {
		return sanitizedIndexNumber(identifier)
	}
	return "[invalid-identifier]"
}

// HasSensitiveParams reports whether a raw query string carries parameters
// that must never reach the request log.
func HasSensitiveParams(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	lowered := strings.ToLower(rawQuery)
	sensitive := []string{"password", "secret", "token", "identifier"}
	for _, param := range sensitive {
		if strings.Contains(lowered, param+"=") {
			return true
		}
	}
	return false
}

func sanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

func sanitizedIndexNumber(indexNumber string) string {
	parts := strings.Split(indexNumber, "/")
	if len(parts) != 4 {
		return "[invalid-index-number]"
	}
	parts[3] = strings.Repeat("*", len(parts[3]))
	return strings.Join(parts, "/")
}
