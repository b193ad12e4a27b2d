// Package normalizer turns loosely structured upstream wallet payloads into
// the canonical WalletProfile. The provider may answer with a structured
// object, JSON embedded in prose, or plain free text; normalization is total
// and never propagates a failure past this boundary.
package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/types"
)

// dateLayouts are the formats first-observed dates have been seen in
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
}

// Normalizer maps raw provider payloads onto WalletProfile
type Normalizer struct {
	logger *logging.Logger
	now    func() time.Time
}

// New creates a normalizer
func New(logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Normalizer{logger: logger, now: time.Now}
}

// WithClock overrides the time source. Age derivation depends on "now", so
// tests pin it.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize converts a raw provider payload into a WalletProfile for the
// analyzed address. It never fails: the worst case is an all-default profile.
func (n *Normalizer) Normalize(raw []byte, address string) (profile types.WalletProfile) {
	profile = types.EmptyWalletProfile()

	// The parsing below is defensive everywhere, but totality is the
	// contract, so a panic from an unexpected shape still degrades to
	// whatever was mapped before it.
	defer func() {
		if r := recover(); r != nil {
			n.logger.WithField("panic", fmt.Sprintf("%v", r)).Error("Normalization panicked, returning partial profile")
		}
	}()

	parsed, strategy := n.extractObject(raw)
	if parsed == nil {
		return profile
	}
	n.logger.WithFields(map[string]interface{}{
		"address":  address,
		"strategy": strategy,
	}).Debug("Parsed upstream payload")

	if v, ok := lookup(parsed, transactionAliases); ok {
		profile.TransactionHistory = asRecords(v)
	}
	if v, ok := lookup(parsed, interactionAliases); ok {
		profile.ContractInteractions = asRecords(v)
	}
	if v, ok := lookup(parsed, holdingAliases); ok {
		profile.TokenHoldings = asRecords(v)
	}

	profile.AddressAge = n.resolveAge(parsed)
	profile.AccountBalance = resolveBalance(parsed)

	if v, ok := lookup(parsed, uniqueAliases); ok {
		if count, ok := asInt(v); ok {
			profile.UniqueInteractions = count
		}
	}
	if profile.UniqueInteractions == 0 && len(profile.TransactionHistory) > 0 {
		profile.UniqueInteractions = deriveUniqueInteractions(profile.TransactionHistory, parsed, address)
	}

	return profile
}

// extractObject locates the structured object inside the payload envelope.
// A textual message field goes through the strategy chain; an object message
// is used directly; without a message field the payload itself is the object.
func (n *Normalizer) extractObject(raw []byte) (map[string]interface{}, string) {
	var envelope map[string]interface{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Not JSON at all: treat the whole payload as message text
		parsed, strategy := parseText(string(raw))
		return parsed, strategy
	}

	message, hasMessage := envelope["message"]
	if !hasMessage {
		return envelope, "envelope"
	}

	switch msg := message.(type) {
	case string:
		parsed, strategy := parseText(msg)
		return parsed, strategy
	case map[string]interface{}:
		return msg, "message_object"
	default:
		return envelope, "envelope"
	}
}

// resolveAge applies the age precedence: explicit day count, then days
// derived from a first-observed date, then a provided string verbatim
// (itself converted when it looks like a date), then Unknown.
func (n *Normalizer) resolveAge(parsed map[string]interface{}) string {
	if v, ok := lookup(parsed, ageDayAliases); ok {
		if days, ok := asInt(v); ok {
			return fmt.Sprintf("%d days", days)
		}
	}

	if v, ok := lookup(parsed, ageDateAliases); ok {
		if s, ok := asString(v); ok {
			if days, ok := n.daysSince(s); ok {
				return fmt.Sprintf("%d days", days)
			}
		}
	}

	if v, ok := lookup(parsed, ageStringAliases); ok {
		if s, ok := asString(v); ok {
			// Date-looking strings are converted to a day count
			if strings.Contains(s, "-") {
				if days, ok := n.daysSince(s); ok {
					return fmt.Sprintf("%d days", days)
				}
			}
			return s
		}
	}

	return types.AgeUnknown
}

// daysSince parses a date string and returns ceil(|now-date| / 24h)
func (n *Normalizer) daysSince(value string) (int, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		date, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		diff := n.now().Sub(date)
		if diff < 0 {
			diff = -diff
		}
		return int(math.Ceil(diff.Hours() / 24)), true
	}
	return 0, false
}

// resolveBalance accepts a balance as a string, a number, or a one-entry
// mapping of symbol to amount, and renders the canonical "<amount> <symbol>".
func resolveBalance(parsed map[string]interface{}) string {
	v, ok := lookup(parsed, balanceAliases)
	if !ok {
		return "0"
	}

	switch balance := v.(type) {
	case map[string]interface{}:
		for symbol, amount := range balance {
			if s, ok := asString(amount); ok {
				return s + " " + symbol
			}
		}
		return "0"
	default:
		if s, ok := asString(v); ok {
			return s
		}
		return "0"
	}
}

// deriveUniqueInteractions counts distinct counterpart addresses across the
// transaction history, excluding the analyzed address itself. Addresses are
// case-folded before counting.
func deriveUniqueInteractions(history []types.Record, parsed map[string]interface{}, address string) int {
	self := map[string]bool{strings.ToLower(address): true}
	if v, ok := lookup(parsed, addressAliases); ok {
		if s, ok := asString(v); ok {
			self[strings.ToLower(s)] = true
		}
	}

	counterparts := make(map[string]bool)
	for _, tx := range history {
		for _, key := range []string{"from", "to"} {
			if s, ok := asString(tx[key]); ok {
				addr := strings.ToLower(s)
				if !self[addr] {
					counterparts[addr] = true
				}
			}
		}
	}

	return len(counterparts)
}
