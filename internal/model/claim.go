package model

// ClaimRecord is the structured data extracted from a single loss notice.
// String fields are either a cleaned, non-empty value or "" (absent); absent
// fields are omitted when the record is serialized.
type ClaimRecord struct {
	PolicyInfo      PolicyInfo      `json:"policyInfo" yaml:"policyInfo"`
	IncidentInfo    IncidentInfo    `json:"incidentInfo" yaml:"incidentInfo"`
	InvolvedParties InvolvedParties `json:"involvedParties" yaml:"involvedParties"`
	AssetDetails    AssetDetails    `json:"assetDetails" yaml:"assetDetails"`
	OtherFields     OtherFields     `json:"otherFields" yaml:"otherFields"`
}

// PolicyInfo identifies the policy the loss is reported against
type PolicyInfo struct {
	PolicyNumber     string `json:"policyNumber,omitempty" yaml:"policyNumber,omitempty"`
	PolicyholderName string `json:"policyholderName,omitempty" yaml:"policyholderName,omitempty"`
	NAICCode         string `json:"naicCode,omitempty" yaml:"naicCode,omitempty"`
	LineOfBusiness   string `json:"lineOfBusiness,omitempty" yaml:"lineOfBusiness,omitempty"`
}

// IncidentInfo describes when, where and how the loss happened
type IncidentInfo struct {
	DateOfLoss                string `json:"dateOfLoss,omitempty" yaml:"dateOfLoss,omitempty"`
	TimeOfLoss                string `json:"timeOfLoss,omitempty" yaml:"timeOfLoss,omitempty"`
	Location                  string `json:"location,omitempty" yaml:"location,omitempty"`
	Description               string `json:"description,omitempty" yaml:"description,omitempty"`
	ReportNumber              string `json:"reportNumber,omitempty" yaml:"reportNumber,omitempty"`
	PoliceDepartmentContacted string `json:"policeDepartmentContacted,omitempty" yaml:"policeDepartmentContacted,omitempty"`
}

// InvolvedParties lists the people named on the notice.
// Address, witness and injured-party fields are part of the schema but no
// extraction rule fills them yet.
type InvolvedParties struct {
	DriverName     string `json:"driverName,omitempty" yaml:"driverName,omitempty"`
	DriverAddress  string `json:"driverAddress,omitempty" yaml:"driverAddress,omitempty"`
	DriverPhone    string `json:"driverPhone,omitempty" yaml:"driverPhone,omitempty"`
	OwnerName      string `json:"ownerName,omitempty" yaml:"ownerName,omitempty"`
	OwnerAddress   string `json:"ownerAddress,omitempty" yaml:"ownerAddress,omitempty"`
	OwnerPhone     string `json:"ownerPhone,omitempty" yaml:"ownerPhone,omitempty"`
	Witnesses      string `json:"witnesses,omitempty" yaml:"witnesses,omitempty"`
	InjuredParties string `json:"injuredParties,omitempty" yaml:"injuredParties,omitempty"`
}

// DefaultAssetType is used for every notice; the supported form covers vehicles only
const DefaultAssetType = "Vehicle"

// AssetDetails describes the damaged asset
type AssetDetails struct {
	AssetType         string `json:"assetType,omitempty" yaml:"assetType,omitempty"`
	VIN               string `json:"vin,omitempty" yaml:"vin,omitempty"`
	Make              string `json:"make,omitempty" yaml:"make,omitempty"`
	Model             string `json:"model,omitempty" yaml:"model,omitempty"`
	Year              string `json:"year,omitempty" yaml:"year,omitempty"`
	PlateNumber       string `json:"plateNumber,omitempty" yaml:"plateNumber,omitempty"`
	State             string `json:"state,omitempty" yaml:"state,omitempty"`
	DamageDescription string `json:"damageDescription,omitempty" yaml:"damageDescription,omitempty"`
	EstimatedDamage   Amount `json:"estimatedDamage,omitzero" yaml:"estimatedDamage,omitempty"`
}

// Claim type labels assigned by whole-document classification
const (
	ClaimTypeInjury         = "Automobile - Injury"
	ClaimTypePropertyDamage = "Automobile - Property Damage"
)

// OtherFields holds classification and agency data
type OtherFields struct {
	ClaimType     string `json:"claimType,omitempty" yaml:"claimType,omitempty"`
	AgencyName    string `json:"agencyName,omitempty" yaml:"agencyName,omitempty"`
	AgencyContact string `json:"agencyContact,omitempty" yaml:"agencyContact,omitempty"`
}
