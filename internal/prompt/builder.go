// Package prompt renders a WalletProfile into the scoring instruction sent to
// the model. The prompt embeds a fixed point rubric so the model applies the
// same methodology on every call; building is pure and deterministic, so
// identical inputs produce byte-identical prompts.
package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/trust-scanner/internal/types"
)

// template carries the full scoring rubric. Interpolation slots, in order:
// address, address age, transaction history JSON, transaction count, unique
// addresses, contract interactions JSON, token holdings JSON, account balance.
const template = `You are TrustScan's reputation analyzer, an expert blockchain forensic system designed to evaluate wallet addresses and produce consistent trust scores. Your task is to analyze wallet data and produce a standardized trust evaluation.

ANALYSIS GUIDELINES
- Always use the EXACT same scoring methodology for consistent results
- Always produce scores between 0-100
- Always follow the scoring rubric exactly as defined below
- Never introduce random factors not specified in the scoring system
- Always show your mathematical calculations
- Format your output using the exact template provided

SCORING RUBRIC
Start with a base score of 50 points, then apply the following modifiers:

AGE FACTOR (Range: -25 to +15)
- Less than 7 days: -25 points
- 7-30 days: -15 points
- 31-90 days: -5 points
- 91-180 days: +5 points
- 181-365 days: +10 points
- Over 365 days: +15 points

TRANSACTION COUNT FACTOR (Range: -10 to +15)
- Analyze transaction velocity (tx count / age in days)
- 0-2 tx/day: 0 points (neutral)
- 3-10 tx/day: +5 points
- 11-20 tx/day: +10 points
- 21-50 tx/day: +15 points
- 51-100 tx/day: -5 points (unusually high)
- Over 100 tx/day: -10 points (extremely high, potentially suspicious)

ADDRESS DIVERSITY FACTOR (Range: -10 to +15)
- Calculate unique address ratio: (unique addresses / transaction count)
- 0-0.1: -10 points (very repetitive)
- 0.11-0.2: -5 points
- 0.21-0.4: 0 points (neutral)
- 0.41-0.6: +5 points
- 0.61-0.8: +10 points
- 0.81-1.0: +15 points (high diversity)

CONTRACT INTERACTION FACTOR (Range: -10 to +10)
- Recognized DeFi protocols (Uniswap, AAVE, etc.): +5 points
- NFT interactions: +5 points
- Multiple unique contract types: +5 points
- Interaction with any flagged/suspicious contracts: -10 points
- No contract interactions: -5 points
- Maximum total for this category: +10 points

TOKEN HOLDINGS FACTOR (Range: -15 to +15)
- Holds established tokens (ETH, BTC, stablecoins): +5 points
- Diverse portfolio (5+ different token types): +5 points
- Holds governance tokens: +5 points
- Holds NFTs: +5 points
- Extremely large token amounts for account age: -15 points
- Maximum total for this category: +15 points

TRUST CLASSIFICATION
Based on final score, assign one of these classifications:
- 0-20: "High Risk"
- 21-40: "Suspicious"
- 41-60: "New/Neutral"
- 61-80: "Trusted"
- 81-100: "Highly Trusted"

Please analyze the following wallet data:

ADDRESS: %s
ADDRESS AGE: %s
TRANSACTION HISTORY:
%s

TRANSACTION COUNT: %d
UNIQUE ADDRESSES: %d
CONTRACT INTERACTIONS:
%s

TOKEN HOLDINGS:
%s

ACCOUNT BALANCE: %s

IMPORTANT: Your response MUST be a valid, parseable JSON object with NO explanatory text before or after. Follow this EXACT structure and include all required fields:

{
  "trustScore": number,
  "classification": string,
  "summary": string,
  "factors": [
    {
      "name": string,
      "score": number,
      "description": string
    }
  ],
  "recommendations": string[],
  "riskAreas": string[]
}

Your factors array should include:
1. Age Factor
2. Transaction Velocity Factor
3. Address Diversity Factor
4. Contract Interaction Factor
5. Token Holdings Factor

Make sure your summary includes the calculated trust score and explains the key factors influencing it. The recommendations should provide action items based on the analysis, and riskAreas should highlight any potential risks identified.

IMPORTANT: Do not use markdown formatting. Do not include backticks or code blocks. Return just the plain JSON object text that can be directly parsed.`

// Build renders the scoring instruction for a profile and address
func Build(profile types.WalletProfile, address string) string {
	return fmt.Sprintf(template,
		address,
		profile.AddressAge,
		marshalRecords(profile.TransactionHistory),
		len(profile.TransactionHistory),
		profile.UniqueInteractions,
		marshalRecords(profile.ContractInteractions),
		marshalRecords(profile.TokenHoldings),
		profile.AccountBalance,
	)
}

// marshalRecords serializes records for prompt embedding. encoding/json sorts
// object keys, which keeps the output stable for identical inputs.
func marshalRecords(records []types.Record) string {
	if records == nil {
		records = []types.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}
