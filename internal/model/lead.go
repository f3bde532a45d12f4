// Package model defines the lead data model shared across the extraction
// pipeline.
package model

// NotAvailable is the sentinel stored in any field the source text did not
// provide. Downstream consumers can treat every field as always-present.
const NotAvailable = "N/A"

// Has reports whether a field value carries real data (non-empty and not
// the sentinel).
func Has(v string) bool {
	return v != "" && v != NotAvailable
}

// Lead is a single business record. Before deduplication ID is empty; the
// merge engine assigns a stable identifier on first insertion and preserves
// it across later enrichments.
type Lead struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	CNPJ      string `json:"cnpj"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Rating    string `json:"rating"`
	Website   string `json:"website"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Score     int    `json:"score"`
}

// Source is a grounding reference returned by the search backend.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Query describes one search request to the external backend. Strategy is
// the query variation label; Lat/Lng are optional and passed through opaquely.
type Query struct {
	Niche    string   `json:"niche"`
	Location string   `json:"location"`
	Strategy string   `json:"strategy,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// Batch is the raw output of one external call for one strategy.
type Batch struct {
	RawText string   `json:"raw_text"`
	Sources []Source `json:"sources,omitempty"`
}

// StrategyFailure records a strategy whose external call did not contribute
// any candidates.
type StrategyFailure struct {
	Strategy    string `json:"strategy"`
	Error       string `json:"error"`
	RateLimited bool   `json:"rate_limited"`
}

// Result is the final output of an extraction run. Leads are sorted by
// descending score; Sources are deduplicated by URI. An empty Leads slice is
// an expected outcome (no leads found), not an error.
type Result struct {
	Leads    []Lead            `json:"leads"`
	Sources  []Source          `json:"sources"`
	Failures []StrategyFailure `json:"failures,omitempty"`
}
