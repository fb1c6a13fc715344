package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/ppiankov/claimflow/internal/model"
)

// Rule describes how one field is located in the notice text.
// Patterns are compiled case-insensitive and multi-line. The first match in
// the document wins and Group selects the capture that becomes the value.
type Rule struct {
	Field   string
	Pattern string
	Group   int

	// Extra captures are joined onto the primary one with ", ".
	// Only non-empty parts take part in the join.
	Extra []Capture

	// MinLen rejects cleaned values whose length is MinLen or less
	MinLen int

	Assign func(rec *model.ClaimRecord, value string)
}

// Capture is a secondary pattern of a composite rule
type Capture struct {
	Pattern string
	Group   int
}

// Field names used by the default rule table
const (
	FieldPolicyNumber     = "policyInfo.policyNumber"
	FieldPolicyholderName = "policyInfo.policyholderName"
	FieldNAICCode         = "policyInfo.naicCode"
	FieldLineOfBusiness   = "policyInfo.lineOfBusiness"
	FieldDateOfLoss       = "incidentInfo.dateOfLoss"
	FieldTimeOfLoss       = "incidentInfo.timeOfLoss"
	FieldLocation         = "incidentInfo.location"
	FieldDescription      = "incidentInfo.description"
	FieldReportNumber     = "incidentInfo.reportNumber"
	FieldPoliceContacted  = "incidentInfo.policeDepartmentContacted"
	FieldDriverName       = "involvedParties.driverName"
	FieldDriverPhone      = "involvedParties.driverPhone"
	FieldOwnerName        = "involvedParties.ownerName"
	FieldVIN              = "assetDetails.vin"
	FieldYear             = "assetDetails.year"
	FieldMake             = "assetDetails.make"
	FieldModel            = "assetDetails.model"
	FieldPlateNumber      = "assetDetails.plateNumber"
	FieldState            = "assetDetails.state"
	FieldDamageDesc       = "assetDetails.damageDescription"
	FieldEstimatedDamage  = "assetDetails.estimatedDamage"
	FieldAgencyName       = "otherFields.agencyName"
	FieldAgencyContact    = "otherFields.agencyContact"
)

// DefaultRules returns the rule table for the ACORD automobile loss notice
func DefaultRules() []Rule {
	return []Rule{
		// Policy
		{
			Field:   FieldPolicyNumber,
			Pattern: `POLICY NUMBER[:\s]*([A-Z0-9-]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.PolicyInfo.PolicyNumber = v },
		},
		{
			Field:   FieldPolicyholderName,
			Pattern: `NAME OF INSURED[^\n]*\n([A-Za-z\s,\.]+?)(?:\n|DATE)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.PolicyInfo.PolicyholderName = v },
		},
		{
			Field:   FieldNAICCode,
			Pattern: `CARRIER NAIC CODE[:\s]*([0-9]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.PolicyInfo.NAICCode = v },
		},
		{
			Field:   FieldLineOfBusiness,
			Pattern: `LINE OF BUSINESS[:\s]*([A-Za-z\s]+?)(?:\n|$)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.PolicyInfo.LineOfBusiness = v },
		},

		// Incident
		{
			Field:   FieldDateOfLoss,
			Pattern: `DATE OF LOSS[^\n]*?([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{2,4})`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.IncidentInfo.DateOfLoss = v },
		},
		{
			Field:   FieldTimeOfLoss,
			Pattern: `TIME[:\s]*([0-9]{1,2}:[0-9]{2}\s*(?:AM|PM)?)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.IncidentInfo.TimeOfLoss = v },
		},
		{
			Field:   FieldLocation,
			Pattern: `STREET[:\s]*([^\n]+?)(?:CITY|\n|$)`,
			Group:   1,
			Extra: []Capture{
				{Pattern: `CITY, STATE, ZIP[:\s]*([^\n]+?)(?:COUNTRY|\n|$)`, Group: 1},
			},
			MinLen: 2,
			Assign: func(r *model.ClaimRecord, v string) { r.IncidentInfo.Location = v },
		},
		{
			Field:   FieldDescription,
			Pattern: `DESCRIPTION OF ACCIDENT[^\n]*\n([^\n]+(?:\n[^A-Z\n][^\n]+)*)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.IncidentInfo.Description = v },
		},
		{
			Field:   FieldReportNumber,
			Pattern: `REPORT NUMBER[:\s]*([A-Z0-9-]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.IncidentInfo.ReportNumber = v },
		},
		{
			Field:   FieldPoliceContacted,
			Pattern: `POLICE OR FIRE DEPARTMENT CONTACTED[:\s]*([^\n]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.IncidentInfo.PoliceDepartmentContacted = v },
		},

		// Parties
		{
			Field:   FieldDriverName,
			Pattern: `DRIVER'S NAME AND ADDRESS[^\n]*\n([A-Za-z\s,\.]+?)(?:\n|PHONE|$)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.InvolvedParties.DriverName = v },
		},
		{
			Field:   FieldDriverPhone,
			Pattern: `DRIVER'S NAME[^\n]*(?:\n[^\n]*){1,3}?PHONE[^\n]*?(\(?[0-9]{3}\)?[-\s]?[0-9]{3}[-\s]?[0-9]{4})`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.InvolvedParties.DriverPhone = v },
		},
		{
			Field:   FieldOwnerName,
			Pattern: `OWNER'S NAME AND ADDRESS[^\n]*\n([A-Za-z\s,\.]+?)(?:\n|PHONE|$)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.InvolvedParties.OwnerName = v },
		},

		// Vehicle
		{
			Field:   FieldVIN,
			Pattern: `V\.I\.N\.?[:\s]*([A-HJ-NPR-Z0-9]{17})`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.VIN = v },
		},
		{
			Field:   FieldYear,
			Pattern: `YEAR[:\s]*([12][0-9]{3})`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.Year = v },
		},
		{
			Field:   FieldMake,
			Pattern: `MAKE[:\s]*([A-Za-z]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.Make = v },
		},
		{
			Field:   FieldModel,
			Pattern: `MODEL[:\s]*([A-Za-z0-9\s]+?)(?:BODY|TYPE|\n|$)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.Model = v },
		},
		{
			Field:   FieldPlateNumber,
			Pattern: `PLATE NUMBER[:\s]*([A-Z0-9]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.PlateNumber = v },
		},
		{
			Field:   FieldState,
			Pattern: `PLATE NUMBER[^\n]*STATE[:\s]*([A-Z]{2})`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.State = v },
		},
		{
			Field:   FieldDamageDesc,
			Pattern: `DESCRIBE DAMAGE[^\n]*\n([^\n]+(?:\n[^A-Z\n][^\n]+)*)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.DamageDescription = v },
		},
		{
			Field:   FieldEstimatedDamage,
			Pattern: `ESTIMATE AMOUNT[:\s]*\$?([0-9,]+(?:\.[0-9]{2})?)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.AssetDetails.EstimatedDamage = parseAmount(v) },
		},

		// Agency
		{
			Field:   FieldAgencyName,
			Pattern: `AGENCY\s+NAME[:\s]*([^\n]+)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.OtherFields.AgencyName = v },
		},
		{
			Field:   FieldAgencyContact,
			Pattern: `CONTACT[^\n]*\n([A-Za-z\s,\.]+?)(?:\n|PHONE|$)`,
			Group:   1,
			Assign:  func(r *model.ClaimRecord, v string) { r.OtherFields.AgencyContact = v },
		},
	}
}

// Fingerprint hashes the observable definition of rules (fields, patterns,
// groups). Cached results keyed by it are invalidated when any rule changes.
func Fingerprint(rules []Rule) string {
	h := sha256.New()
	for _, r := range rules {
		h.Write([]byte(r.Field))
		h.Write([]byte{0})
		h.Write([]byte(r.Pattern))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(r.Group)))
		for _, c := range r.Extra {
			h.Write([]byte{0})
			h.Write([]byte(c.Pattern))
			h.Write([]byte(strconv.Itoa(c.Group)))
		}
		h.Write([]byte(strconv.Itoa(r.MinLen)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}
