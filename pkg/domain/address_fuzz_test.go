//go:build go1.18

package domain

import (
	"strings"
	"testing"
)

// FuzzParseAddress tests that parsing never panics on arbitrary input and
// that every accepted address is canonical.
//
// Justification: entry addresses arrive straight off the wire; the parser
// is a trust boundary and must handle arbitrary input safely.
func FuzzParseAddress(f *testing.F) {
	// Seed corpus with interesting inputs
	f.Add("")
	f.Add("0x")
	f.Add("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	f.Add("0XAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	f.Add("0xAbCdEf0123456789aBcDeF0123456789ABCDEF01")
	f.Add("not-an-address")
	f.Add("'; DROP TABLE players;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		addr, err := ParseAddress(input)
		if err != nil {
			return
		}

		// Accepted addresses must be canonical and round-trip unchanged.
		if addr.String() != strings.ToLower(addr.String()) {
			t.Errorf("accepted address %q is not lowercased", addr)
		}
		roundTrip, err2 := ParseAddress(addr.String())
		if err2 != nil {
			t.Errorf("valid address failed round-trip: %v", err2)
		}
		if roundTrip != addr {
			t.Error("round-trip changed address value")
		}
		if addr.IsZero() {
			t.Error("parser accepted an input that canonicalizes to the zero address")
		}
	})
}
