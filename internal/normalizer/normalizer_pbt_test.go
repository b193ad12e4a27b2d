package normalizer

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Normalization must be total: any byte sequence, structured or not, yields a
// profile with every field present and correctly typed.
func TestNormalizeTotalityProperty(t *testing.T) {
	n := New(nil)
	properties := gopter.NewProperties(nil)

	wellFormed := func(payload, address string) bool {
		profile := n.Normalize([]byte(payload), address)
		return profile.TransactionHistory != nil &&
			profile.ContractInteractions != nil &&
			profile.TokenHoldings != nil &&
			profile.AddressAge != "" &&
			profile.UniqueInteractions >= 0 &&
			profile.AccountBalance != ""
	}

	properties.Property("arbitrary text normalizes to a well-formed profile", prop.ForAll(
		wellFormed,
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.Property("arbitrary message field normalizes to a well-formed profile", prop.ForAll(
		func(message, address string) bool {
			payload := `{"message": ` + quote(message) + `}`
			return wellFormed(payload, address)
		},
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			out = append(out, '\\', c)
		case c < 0x20:
			out = append(out, []byte(`\u0000`)...)
		default:
			out = append(out, c)
		}
	}
	return string(append(out, '"'))
}
