package models

import (
	"regexp"
	"strings"
)

// IdentifierKind partitions login identifiers into the two namespaces the
// portal recognizes: staff emails and student index numbers.
type IdentifierKind int

const (
	IdentifierEmail IdentifierKind = iota
	IdentifierIndexNumber
)

// Identifier is the parsed, canonical form of a submitted login identifier.
// Parsing happens once at the boundary; everything downstream branches on
// Kind instead of re-inspecting the raw string.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// Index numbers look like DEPT/PROG/YY/SEQ, e.g. CS/ITC/21/0001.
var indexNumberPattern = regexp.MustCompile(`^[A-Z]{2,6}/[A-Z]{2,6}/\d{2}/\d{3,5}$`)

// ParseIdentifier classifies and canonicalizes a raw login identifier.
// Anything containing the namespace separator is treated as an index number
// and upper-cased; everything else is treated as an email and lower-cased.
// The boolean is false when the identifier fits neither namespace.
func ParseIdentifier(raw string) (Identifier, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, false
	}

	if strings.Contains(raw, "/") {
		canonical := strings.ToUpper(raw)
		if !indexNumberPattern.MatchString(canonical) {
			return Identifier{}, false
		}
		return Identifier{Kind: IdentifierIndexNumber, Value: canonical}, true
	}

	if !strings.Contains(raw, "@") {
		return Identifier{}, false
	}
	return Identifier{Kind: IdentifierEmail, Value: strings.ToLower(raw)}, true
}

// IsIndexNumber reports whether the identifier belongs to the student namespace.
func (id Identifier) IsIndexNumber() bool {
	return id.Kind == IdentifierIndexNumber
}
