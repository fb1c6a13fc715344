// Package route decides which processing queue a validated claim goes to.
//
// Rules are evaluated in priority order and the first one that matches wins.
// Routing is total: the last rule always matches.
package route

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimflow/internal/keywords"
	"github.com/ppiankov/claimflow/internal/model"
)

// Vocabularies scanned in the accident description
var (
	FraudIndicators  = []string{"fraud", "fraudulent", "inconsistent", "staged", "suspicious", "fake"}
	InjuryIndicators = []string{"injury", "injured", "hurt", "hospital", "ambulance", "medical"}
)

// Rule is one row of the routing table
type Rule struct {
	Priority int
	Name     string
	Route    model.Route

	match  func(c *claim) bool
	reason func(c *claim) string
}

// claim is the view of a record the rules evaluate
type claim struct {
	rec       *model.ClaimRecord
	missing   []string
	damage    float64
	hasDamage bool
	threshold float64
	fraud     []string
}

// Router applies the routing table. Safe for concurrent use.
type Router struct {
	threshold float64
	fraud     *keywords.Set
	injury    *keywords.Set
	rules     []Rule
}

// New creates a Router. threshold is the exclusive upper bound of fast-track
// damage; values <= 0 use model.DefaultFastTrackThreshold.
func New(threshold float64) *Router {
	if threshold <= 0 {
		threshold = model.DefaultFastTrackThreshold
	}

	r := &Router{
		threshold: threshold,
		fraud:     keywords.New(FraudIndicators...),
		injury:    keywords.New(InjuryIndicators...),
	}
	r.rules = r.table()
	return r
}

func (r *Router) table() []Rule {
	return []Rule{
		{
			Priority: 1,
			Name:     "missing-mandatory-fields",
			Route:    model.RouteManualReview,
			match:    func(c *claim) bool { return len(c.missing) > 0 },
			reason: func(c *claim) string {
				return fmt.Sprintf("Missing mandatory fields: %s.", strings.Join(c.missing, ", "))
			},
		},
		{
			Priority: 2,
			Name:     "fraud-indicators",
			Route:    model.RouteInvestigation,
			match: func(c *claim) bool {
				c.fraud = r.fraud.Matches(c.rec.IncidentInfo.Description)
				return len(c.fraud) > 0
			},
			reason: func(c *claim) string {
				return fmt.Sprintf("Description contains potential fraud indicators (words like 'fraud', 'inconsistent', or 'staged'). Matched: %s.",
					strings.Join(c.fraud, ", "))
			},
		},
		{
			Priority: 3,
			Name:     "injury",
			Route:    model.RouteSpecialist,
			match: func(c *claim) bool {
				return strings.Contains(strings.ToLower(c.rec.OtherFields.ClaimType), "injury") ||
					r.injury.Contains(c.rec.IncidentInfo.Description)
			},
			reason: func(c *claim) string {
				reason := "Claim involves injuries and requires specialist review."
				if c.hasDamage {
					reason += fmt.Sprintf(" Estimated damage: $%.2f.", c.damage)
				}
				return reason
			},
		},
		{
			Priority: 4,
			Name:     "fast-track",
			Route:    model.RouteFastTrack,
			match:    func(c *claim) bool { return c.hasDamage && c.damage < c.threshold },
			reason: func(c *claim) string {
				return fmt.Sprintf("Estimated damage ($%.2f) is below the $%.2f threshold. All mandatory fields are present. No fraud indicators or injuries detected.",
					c.damage, c.threshold)
			},
		},
		{
			Priority: 5,
			Name:     "above-threshold",
			Route:    model.RouteStandardReview,
			match:    func(c *claim) bool { return c.hasDamage },
			reason: func(c *claim) string {
				return fmt.Sprintf("Estimated damage ($%.2f) meets or exceeds the fast-track threshold of $%.2f. Requires standard review process.",
					c.damage, c.threshold)
			},
		},
		{
			Priority: 6,
			Name:     "default",
			Route:    model.RouteStandardReview,
			match:    func(*claim) bool { return true },
			reason: func(*claim) string {
				return "Standard processing route - all mandatory fields present except damage estimate."
			},
		},
	}
}

// Route returns the decision of the first matching rule.
// missing is the mandatory-field report for rec.
func (r *Router) Route(rec model.ClaimRecord, missing []string) model.RoutingDecision {
	c := &claim{
		rec:       &rec,
		missing:   missing,
		threshold: r.threshold,
	}
	c.damage, c.hasDamage = rec.AssetDetails.EstimatedDamage.Value()

	for _, rule := range r.rules {
		if rule.match(c) {
			return model.RoutingDecision{
				Route:     rule.Route,
				Reasoning: rule.reason(c),
				Priority:  rule.Priority,
			}
		}
	}

	// unreachable, the default rule always matches
	return model.RoutingDecision{Route: model.RouteStandardReview, Priority: len(r.rules)}
}

// Rules returns the routing table in evaluation order
func (r *Router) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Threshold returns the fast-track threshold in effect
func (r *Router) Threshold() float64 {
	return r.threshold
}
