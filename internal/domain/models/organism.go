package models

import "time"

// OrganismType identifies one analytical lens over a price series.
type OrganismType string

const (
	OrganismUnslug     OrganismType = "UNSLUG"
	OrganismFearIndex  OrganismType = "FearIndex"
	OrganismMarketFlow OrganismType = "MarketFlow"
)

// AllOrganisms lists every supported organism in dispatch order.
func AllOrganisms() []OrganismType {
	return []OrganismType{OrganismUnslug, OrganismFearIndex, OrganismMarketFlow}
}

// IsValidOrganism reports whether t is a supported organism identifier.
func IsValidOrganism(t OrganismType) bool {
	switch t {
	case OrganismUnslug, OrganismFearIndex, OrganismMarketFlow:
		return true
	default:
		return false
	}
}

// SignalType is the coarse recommendation derived from a trust score.
type SignalType string

const (
	SignalBuy     SignalType = "BUY"
	SignalNeutral SignalType = "NEUTRAL"
	SignalRisk    SignalType = "RISK"
)

// Contribution tags how an explain entry moves the trust score.
type Contribution string

const (
	IncreasesTrust Contribution = "increases_trust"
	DecreasesTrust Contribution = "decreases_trust"
	NeutralTrust   Contribution = "neutral"
)

// ExplainEntry is one display-ready line of the scoring audit trail.
// Value is a float64 or a string.
type ExplainEntry struct {
	Name         string       `json:"name"`
	Value        interface{}  `json:"value"`
	Contribution Contribution `json:"contribution"`
}

// OrganismOutput is the uniform result of scoring one organism over one
// symbol's series. Immutable once produced; ownership passes to the caller.
type OrganismOutput struct {
	Organism OrganismType   `json:"organism"`
	Symbol   string         `json:"symbol"`
	Ts       time.Time      `json:"ts"`
	Signal   SignalType     `json:"signal"`
	Trust    float64        `json:"trust"`
	Explain  []ExplainEntry `json:"explain"`
}
