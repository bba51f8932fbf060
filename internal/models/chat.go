package models

// IntentType classifies the purpose of a free-text query
type IntentType string

const (
	IntentSummary           IntentType = "SUMMARY"
	IntentRisk              IntentType = "RISK"
	IntentEfficiency        IntentType = "EFFICIENCY"
	IntentAllocationSim     IntentType = "ALLOCATION_SIM"
	IntentExplainAllocation IntentType = "EXPLAIN_ALLOCATION"
	IntentExplain           IntentType = "EXPLAIN"
	IntentCompare           IntentType = "COMPARE"
	IntentUnsupported       IntentType = "UNSUPPORTED"
)

// Intent is the classified form of a conversational query
type Intent struct {
	Type   IntentType `json:"type"`
	Assets []string   `json:"assets,omitempty"` // matched identifiers, analysis-set order
	Amount float64    `json:"amount,omitempty"` // ALLOCATION_SIM only
}

// AllocationEntry is one line of a simulated capital allocation
type AllocationEntry struct {
	Identifier string  `json:"identifier"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int64   `json:"quantity"`
	Cost       float64 `json:"cost"`
	WeightPct  float64 `json:"weight_pct"`
}

// AllocationPlan is the result of a capital allocation simulation.
// Invariant: sum of entry costs never exceeds the requested amount and
// UnusedCash is always non-negative.
type AllocationPlan struct {
	Entries    []AllocationEntry `json:"entries"`
	UnusedCash float64           `json:"unused_cash"`
	Strategy   string            `json:"strategy"`
}

// AllocationSnapshot is the persisted memory of the last simulated allocation
type AllocationSnapshot struct {
	TopPicks []AllocationEntry `json:"top_picks"` // top 3 by weight, descending
	Strategy string            `json:"strategy"`
}

// ConversationState carries conversational context between turns. It lives for
// the process lifetime and is mutated only by the conversational engine.
type ConversationState struct {
	LastAsset      string              `json:"last_asset,omitempty"` // weak reference by identifier
	LastAllocation *AllocationSnapshot `json:"last_allocation,omitempty"`
}
