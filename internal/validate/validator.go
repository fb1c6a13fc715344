// Package validate checks an extracted claim for missing mandatory fields and
// for values that are present but implausible.
package validate

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/claimflow/internal/model"
)

// Mandatory field names, reported in this order
const (
	FieldPolicyNumber     = "Policy Number"
	FieldPolicyholderName = "Policyholder Name"
	FieldDateOfLoss       = "Date of Loss"
	FieldLocation         = "Location of Loss"
	FieldDescription      = "Description of Accident"
	FieldEstimatedDamage  = "Estimated Damage Amount"
	FieldClaimType        = "Claim Type"
)

// Consistency findings
const (
	MsgNegativeDamage = "Estimated damage cannot be negative"
	MsgHighDamage     = "Estimated damage amount is unusually high"
	MsgVINLength      = "VIN should be 17 characters"
	MsgYearRange      = "Vehicle year is outside reasonable range"
	MsgYearFormat     = "Invalid vehicle year format"
)

// VINLength is the length of a modern vehicle identification number
const VINLength = 17

type mandatoryField struct {
	name    string
	present func(rec *model.ClaimRecord) bool
}

func text(get func(rec *model.ClaimRecord) string) func(rec *model.ClaimRecord) bool {
	return func(rec *model.ClaimRecord) bool {
		return strings.TrimSpace(get(rec)) != ""
	}
}

var mandatory = []mandatoryField{
	{FieldPolicyNumber, text(func(r *model.ClaimRecord) string { return r.PolicyInfo.PolicyNumber })},
	{FieldPolicyholderName, text(func(r *model.ClaimRecord) string { return r.PolicyInfo.PolicyholderName })},
	{FieldDateOfLoss, text(func(r *model.ClaimRecord) string { return r.IncidentInfo.DateOfLoss })},
	{FieldLocation, text(func(r *model.ClaimRecord) string { return r.IncidentInfo.Location })},
	{FieldDescription, text(func(r *model.ClaimRecord) string { return r.IncidentInfo.Description })},
	{FieldEstimatedDamage, func(r *model.ClaimRecord) bool {
		_, ok := r.AssetDetails.EstimatedDamage.Value()
		return ok
	}},
	{FieldClaimType, text(func(r *model.ClaimRecord) string { return r.OtherFields.ClaimType })},
}

// MandatoryFields returns the mandatory field names in report order
func MandatoryFields() []string {
	names := make([]string, len(mandatory))
	for i, f := range mandatory {
		names[i] = f.name
	}
	return names
}

// Option configures a Validator
type Option func(*Validator)

// WithClock sets the time source used to derive the latest plausible model year
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// Validator runs the mandatory and consistency passes. Safe for concurrent use.
type Validator struct {
	minYear   int
	maxYear   int // 0 derives current year + 1
	maxDamage float64
	now       func() time.Time
}

// New creates a Validator. Zero or negative bounds fall back to the defaults.
func New(cfg model.ValidationConfig, opts ...Option) *Validator {
	defaults := model.DefaultConfig().Validation

	v := &Validator{
		minYear:   cfg.MinYear,
		maxYear:   cfg.MaxYear,
		maxDamage: cfg.MaxDamage,
		now:       time.Now,
	}
	if v.minYear <= 0 {
		v.minYear = defaults.MinYear
	}
	if v.maxYear < 0 {
		v.maxYear = 0
	}
	if v.maxDamage <= 0 {
		v.maxDamage = defaults.MaxDamage
	}

	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mandatory returns the names of missing mandatory fields in fixed order.
// The result is empty, never nil, when everything is present.
func (v *Validator) Mandatory(rec model.ClaimRecord) []string {
	missing := []string{}
	for _, f := range mandatory {
		if !f.present(&rec) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Consistency returns advisory findings about present values.
// Findings never affect routing.
func (v *Validator) Consistency(rec model.ClaimRecord) []string {
	var issues []string

	if damage, ok := rec.AssetDetails.EstimatedDamage.Value(); ok {
		if damage < 0 {
			issues = append(issues, MsgNegativeDamage)
		}
		if damage > v.maxDamage {
			issues = append(issues, MsgHighDamage)
		}
	}

	if vin := strings.TrimSpace(rec.AssetDetails.VIN); vin != "" && utf8.RuneCountInString(vin) != VINLength {
		issues = append(issues, MsgVINLength)
	}

	if raw := strings.TrimSpace(rec.AssetDetails.Year); raw != "" {
		year, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			issues = append(issues, MsgYearFormat)
		case year < v.minYear || year > v.MaxYear():
			issues = append(issues, MsgYearRange)
		}
	}

	return issues
}

// MaxYear is the latest plausible model year at the current clock
func (v *Validator) MaxYear() int {
	if v.maxYear > 0 {
		return v.maxYear
	}
	return v.now().Year() + 1
}

// MinYear is the earliest plausible model year
func (v *Validator) MinYear() int {
	return v.minYear
}
