// Package types provides common type definitions for the trust scanner system.
package types

// UserTier represents the service tier level
type UserTier string

const (
	// TierFree represents the free service tier with limited features
	TierFree UserTier = "free"
	// TierPaid represents the paid service tier with full features
	TierPaid UserTier = "paid"
)

// ResultSource indicates where an analysis result came from
type ResultSource string

const (
	// SourceCache indicates the result was served from the cache
	SourceCache ResultSource = "cache"
	// SourceFresh indicates the result was computed for this request
	SourceFresh ResultSource = "fresh"
)

// Classification labels assigned from the rubric's score bands. The validator
// accepts any string from the model; these are the labels the rubric defines.
const (
	ClassificationHighRisk      = "High Risk"
	ClassificationSuspicious    = "Suspicious"
	ClassificationNewNeutral    = "New/Neutral"
	ClassificationTrusted       = "Trusted"
	ClassificationHighlyTrusted = "Highly Trusted"

	// ClassificationUnknown is substituted when the model omits the label
	ClassificationUnknown = "Unknown"
	// ClassificationError marks a validator-repaired result for a reply that
	// could not be parsed at all
	ClassificationError = "Error"
)

// AgeUnknown is the sentinel for an address age that could not be determined
const AgeUnknown = "Unknown"

// Record is a loosely structured upstream record (transaction, contract
// interaction or token holding). The provider does not guarantee a schema, so
// records stay opaque; only counterpart fields ("from"/"to") are ever inspected.
type Record map[string]interface{}

// WalletProfile is the canonical shape all upstream wallet data is normalized
// into. Every field is always present and type-correct after normalization;
// absent or malformed upstream data degrades to the field's default.
type WalletProfile struct {
	TransactionHistory   []Record `json:"transactionHistory"`
	ContractInteractions []Record `json:"contractInteractions"`
	TokenHoldings        []Record `json:"tokenHoldings"`
	AddressAge           string   `json:"addressAge"`         // "<N> days" or "Unknown"
	UniqueInteractions   int      `json:"uniqueInteractions"` // distinct counterpart addresses
	AccountBalance       string   `json:"accountBalance"`     // "<amount> <symbol>", default "0"
}

// EmptyWalletProfile returns an all-default profile, the normalizer's worst case.
func EmptyWalletProfile() WalletProfile {
	return WalletProfile{
		TransactionHistory:   []Record{},
		ContractInteractions: []Record{},
		TokenHoldings:        []Record{},
		AddressAge:           AgeUnknown,
		UniqueInteractions:   0,
		AccountBalance:       "0",
	}
}

// Factor is one scored rubric factor in a trust analysis
type Factor struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// TrustAnalysis is the validated result of a scored analysis. All fields are
// well-typed after validation; the score is passed through unclamped.
type TrustAnalysis struct {
	TrustScore      float64  `json:"trustScore"`
	Classification  string   `json:"classification"`
	Summary         string   `json:"summary"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
	RiskAreas       []string `json:"riskAreas"`
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
