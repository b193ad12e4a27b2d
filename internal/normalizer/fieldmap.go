package normalizer

import (
	"strconv"
	"strings"

	"github.com/trust-scanner/internal/types"
)

// The provider is not guaranteed to use one fixed schema: fields arrive as
// camelCase or snake_case, flat or nested. Each canonical field is resolved
// through an ordered alias list; the first alias present in the parsed object
// wins. Aliases may use dotted paths to reach into nested objects. Adding a
// new upstream shape is an entry here, not a new conditional.
var (
	transactionAliases = []string{"transactionHistory", "transaction_history", "transactions", "txHistory"}
	interactionAliases = []string{"contractInteractions", "contract_interactions", "smart_contract_interactions"}
	holdingAliases     = []string{"tokenHoldings", "token_holdings", "tokens", "holdings"}
	uniqueAliases      = []string{"uniqueInteractions", "unique_interactions", "unique_addresses", "uniqueAddresses"}
	balanceAliases     = []string{"accountBalance", "account_balance", "balance", "current_balance"}
	addressAliases     = []string{"address", "wallet_address", "walletAddress"}

	// Age precedence: explicit day count first, then a first-observed date to
	// derive days from, then any provided age string verbatim.
	ageDayAliases  = []string{"age_of_address.age_in_days", "ageInDays", "age_in_days", "addressAgeDays"}
	ageDateAliases = []string{
		"age_of_address.first_transaction_observed",
		"age_of_address.first_transaction_date",
		"first_transaction_date",
		"firstTransactionDate",
	}
	ageStringAliases = []string{"addressAge", "address_age", "age_of_address.age"}
)

// lookup resolves the first present alias against the parsed object. Dotted
// aliases descend through nested objects.
func lookup(parsed map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, alias := range aliases {
		current := interface{}(parsed)
		found := true
		for _, part := range strings.Split(alias, ".") {
			obj, ok := current.(map[string]interface{})
			if !ok {
				found = false
				break
			}
			current, ok = obj[part]
			if !ok {
				found = false
				break
			}
		}
		if found && current != nil {
			return current, true
		}
	}
	return nil, false
}

// asRecords coerces an upstream value into a record slice. Non-slice values
// and non-object elements degrade to nothing rather than failing.
func asRecords(v interface{}) []types.Record {
	items, ok := v.([]interface{})
	if !ok {
		return []types.Record{}
	}

	records := make([]types.Record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			records = append(records, types.Record(obj))
		}
	}
	return records
}

// asString coerces scalar upstream values into a string
func asString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// asInt coerces numeric upstream values (JSON numbers decode as float64,
// but providers also send numbers as strings) into a non-negative int.
func asInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return 0, false
		}
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
