package chat

import (
	"strings"

	"github.com/samber/lo"
)

// NormalizeIdentity canonicalizes a participant handle.
// Every boundary (handshake, inbound events, storage keys, registry lookups)
// goes through this before comparing or storing an identity.
func NormalizeIdentity(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeIdentities normalizes a slice of handles and drops duplicates
// and empty entries, preserving first-seen order.
func NormalizeIdentities(raw []string) []string {
	normalized := lo.Map(raw, func(id string, _ int) string {
		return NormalizeIdentity(id)
	})
	return lo.Uniq(lo.Filter(normalized, func(id string, _ int) bool {
		return id != ""
	}))
}
