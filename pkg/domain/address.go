package domain

import (
	"fmt"
	"strings"
)

// Address identifies a payable participant account. It is a domain
// primitive validated at parse time: a 0x-prefixed, 40-hex-digit string,
// stored lowercased so comparisons are canonical.
type Address string

// ZeroAddress is the empty account; it is what RecentWinner reports before
// the first round completes.
const ZeroAddress Address = ""

// ParseAddress validates and canonicalizes an account address.
func ParseAddress(s string) (Address, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("address %q: missing 0x prefix", s)
	}
	hexPart := s[2:]
	if len(hexPart) != 40 {
		return "", fmt.Errorf("address %q: want 40 hex digits, got %d", s, len(hexPart))
	}
	for _, r := range hexPart {
		if !isHexDigit(r) {
			return "", fmt.Errorf("address %q: invalid hex digit %q", s, r)
		}
	}
	return Address("0x" + strings.ToLower(hexPart)), nil
}

func isHexDigit(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'f':
		return true
	case r >= 'A' && r <= 'F':
		return true
	}
	return false
}

// String returns the canonical form of the address.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
