package domain

import "strings"

// Address identifies an account, an asset registry or the notary itself.
// Identity equality is the only access-control primitive in the system.
type Address string

// ZeroAddress is the null identity. Transfers to it are rejected and
// approving it clears an asset's authorization.
const ZeroAddress Address = ""

// IsZero reports whether a is the null identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// ParseAddress trims surrounding whitespace from s and returns it as an Address.
func ParseAddress(s string) Address {
	return Address(strings.TrimSpace(s))
}
