package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IdentifierKind distinguishes port codes from region slugs.
type IdentifierKind int

const (
	KindPort IdentifierKind = iota + 1
	KindRegion
)

// portCodeMaxLen is the longest untagged identifier, in characters, treated
// as a port code.
const portCodeMaxLen = 5

const (
	portTag   = "port:"
	regionTag = "region:"
)

func (k IdentifierKind) String() string {
	switch k {
	case KindPort:
		return "port"
	case KindRegion:
		return "region"
	default:
		return "unknown"
	}
}

// Identifier is an origin or destination that has already been classified.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// PortCode returns an identifier naming a single port.
func PortCode(code string) Identifier {
	return Identifier{Kind: KindPort, Value: code}
}

// RegionSlug returns an identifier naming a region.
func RegionSlug(slug string) Identifier {
	return Identifier{Kind: KindRegion, Value: slug}
}

func (id Identifier) String() string {
	return fmt.Sprintf("%s:%s", id.Kind, id.Value)
}

// ParseIdentifier classifies a raw identifier. Tagged values ("port:",
// "region:") are taken at their word; untagged values longer than five
// characters are region slugs and everything else is a port code.
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, &ValidationError{Field: "identifier", Message: "must not be empty"}
	}

	switch {
	case strings.HasPrefix(raw, portTag):
		code := strings.TrimPrefix(raw, portTag)
		if code == "" {
			return Identifier{}, &ValidationError{Field: "identifier", Message: "port tag without a code"}
		}
		return PortCode(code), nil
	case strings.HasPrefix(raw, regionTag):
		slug := strings.TrimPrefix(raw, regionTag)
		if slug == "" {
			return Identifier{}, &ValidationError{Field: "identifier", Message: "region tag without a slug"}
		}
		return RegionSlug(slug), nil
	case utf8.RuneCountInString(raw) > portCodeMaxLen:
		return RegionSlug(raw), nil
	default:
		return PortCode(raw), nil
	}
}
