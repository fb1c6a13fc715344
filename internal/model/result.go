package model

import "time"

// Route is the processing queue a claim is sent to
type Route string

const (
	RouteManualReview   Route = "Manual Review"       // Mandatory data missing
	RouteInvestigation  Route = "Investigation Queue" // Fraud indicators present
	RouteSpecialist     Route = "Specialist Queue"    // Injury claims
	RouteFastTrack      Route = "Fast-track"          // Low-value, clean claims
	RouteStandardReview Route = "Standard Review"     // Everything else
)

// Routes lists every route in the order the router can produce them
func Routes() []Route {
	return []Route{
		RouteManualReview,
		RouteInvestigation,
		RouteSpecialist,
		RouteFastTrack,
		RouteStandardReview,
	}
}

func (r Route) String() string {
	return string(r)
}

// Valid reports whether r is one of the known routes
func (r Route) Valid() bool {
	for _, known := range Routes() {
		if r == known {
			return true
		}
	}
	return false
}

// RoutingDecision is the router's verdict for a single claim
type RoutingDecision struct {
	Route     Route  `json:"route" yaml:"route"`
	Reasoning string `json:"reasoning" yaml:"reasoning"`
	Priority  int    `json:"priority" yaml:"priority"` // Rank of the rule that matched (1 = highest)
}

// ClaimResult is everything produced for one processed document
type ClaimResult struct {
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	ProcessedAt time.Time `json:"processedAt,omitzero" yaml:"processedAt,omitempty"`

	ExtractedFields ClaimRecord `json:"extractedFields" yaml:"extractedFields"`
	MissingFields   []string    `json:"missingFields" yaml:"missingFields"`
	Inconsistencies []string    `json:"inconsistencies,omitempty" yaml:"inconsistencies,omitempty"`

	RecommendedRoute Route  `json:"recommendedRoute" yaml:"recommendedRoute"`
	Reasoning        string `json:"reasoning" yaml:"reasoning"`
	Priority         int    `json:"priority" yaml:"priority"`
}

// Decision returns the routing decision embedded in the result
func (r *ClaimResult) Decision() RoutingDecision {
	return RoutingDecision{
		Route:     r.RecommendedRoute,
		Reasoning: r.Reasoning,
		Priority:  r.Priority,
	}
}
