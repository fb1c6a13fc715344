package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/claimflow/internal/model"
)

// StdoutPath renders to standard output instead of a file
const StdoutPath = "-"

// Renderer writes ClaimResults as JSON, YAML, Markdown or a console summary
type Renderer struct {
	includeFooter bool
	stdout        io.Writer
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		stdout:        os.Stdout,
	}
}

// SetStdout redirects output for StdoutPath
func (r *Renderer) SetStdout(w io.Writer) {
	r.stdout = w
}

// DefaultJSONPath is the timestamped result file name used when no path is given
func DefaultJSONPath(now time.Time) string {
	return fmt.Sprintf("claim_result_%d.json", now.UnixMilli())
}

// RenderJSON writes res as indented JSON
func (r *Renderer) RenderJSON(res *model.ClaimResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return r.write(path, append(data, '\n'))
}

// RenderYAML writes res as YAML
func (r *Renderer) RenderYAML(res *model.ClaimResult, path string) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal YAML: %w", err)
	}
	return r.write(path, data)
}

// RenderMarkdown writes a human-readable claim report
func (r *Renderer) RenderMarkdown(res *model.ClaimResult, path string) error {
	return r.write(path, []byte(r.Markdown(res)))
}

// Markdown builds the claim report
func (r *Renderer) Markdown(res *model.ClaimResult) string {
	var b strings.Builder

	title := res.Source
	if title == "" {
		title = res.ID
	}
	fmt.Fprintf(&b, "# Claim Routing Report: %s\n\n", title)

	fmt.Fprintf(&b, "**Recommended route:** %s (priority %d)\n\n", res.RecommendedRoute, res.Priority)
	fmt.Fprintf(&b, "**Reasoning:** %s\n\n", res.Reasoning)
	if res.ID != "" {
		fmt.Fprintf(&b, "**Result ID:** `%s`\n\n", res.ID)
	}
	if !res.ProcessedAt.IsZero() {
		fmt.Fprintf(&b, "**Processed:** %s\n\n", res.ProcessedAt.UTC().Format(time.RFC3339))
	}

	b.WriteString("## Missing Mandatory Fields\n\n")
	if len(res.MissingFields) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, f := range res.MissingFields {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Consistency Findings\n\n")
	if len(res.Inconsistencies) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, issue := range res.Inconsistencies {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Extracted Fields\n\n")
	group := ""
	for _, row := range Fields(res.ExtractedFields) {
		if row.Group != group {
			if group != "" {
				b.WriteString("\n")
			}
			group = row.Group
			fmt.Fprintf(&b, "### %s\n\n| Field | Value |\n|---|---|\n", group)
		}
		fmt.Fprintf(&b, "| %s | %s |\n", row.Label, escapeCell(row.Value))
	}
	if group == "" {
		b.WriteString("No fields extracted.\n")
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Generated by claimflow. Routing is a recommendation; extraction is rule-based and may miss fields on non-standard layouts._\n")
	}

	return b.String()
}

// RenderSummary prints a short console summary to w
func (r *Renderer) RenderSummary(w io.Writer, res *model.ClaimResult) {
	fmt.Fprintf(w, "\nClaim: %s\n", res.Source)
	fmt.Fprintf(w, "Route: %s (priority %d)\n", res.RecommendedRoute, res.Priority)
	fmt.Fprintf(w, "Reasoning: %s\n", res.Reasoning)

	if len(res.MissingFields) == 0 {
		fmt.Fprintln(w, "Missing fields: none")
	} else {
		fmt.Fprintf(w, "Missing fields: %s\n", strings.Join(res.MissingFields, ", "))
	}
	for _, issue := range res.Inconsistencies {
		fmt.Fprintf(w, "⚠ %s\n", issue)
	}
}

func (r *Renderer) write(path string, data []byte) error {
	if path == StdoutPath {
		_, err := r.stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// FieldRow is one present field of a record, labelled for display
type FieldRow struct {
	Group string
	Label string
	Value string
}

// Fields lists the present fields of rec in display order
func Fields(rec model.ClaimRecord) []FieldRow {
	var rows []FieldRow
	add := func(group, label, value string) {
		if value != "" {
			rows = append(rows, FieldRow{Group: group, Label: label, Value: value})
		}
	}

	p := rec.PolicyInfo
	add("Policy", "Policy Number", p.PolicyNumber)
	add("Policy", "Policyholder Name", p.PolicyholderName)
	add("Policy", "NAIC Code", p.NAICCode)
	add("Policy", "Line of Business", p.LineOfBusiness)

	i := rec.IncidentInfo
	add("Incident", "Date of Loss", i.DateOfLoss)
	add("Incident", "Time of Loss", i.TimeOfLoss)
	add("Incident", "Location", i.Location)
	add("Incident", "Description", i.Description)
	add("Incident", "Report Number", i.ReportNumber)
	add("Incident", "Police/Fire Department", i.PoliceDepartmentContacted)

	ip := rec.InvolvedParties
	add("Parties", "Driver", ip.DriverName)
	add("Parties", "Driver Address", ip.DriverAddress)
	add("Parties", "Driver Phone", ip.DriverPhone)
	add("Parties", "Owner", ip.OwnerName)
	add("Parties", "Owner Address", ip.OwnerAddress)
	add("Parties", "Owner Phone", ip.OwnerPhone)
	add("Parties", "Witnesses", ip.Witnesses)
	add("Parties", "Injured Parties", ip.InjuredParties)

	a := rec.AssetDetails
	add("Vehicle", "Asset Type", a.AssetType)
	add("Vehicle", "VIN", a.VIN)
	add("Vehicle", "Year", a.Year)
	add("Vehicle", "Make", a.Make)
	add("Vehicle", "Model", a.Model)
	add("Vehicle", "Plate Number", a.PlateNumber)
	add("Vehicle", "State", a.State)
	add("Vehicle", "Damage Description", a.DamageDescription)
	if !a.EstimatedDamage.IsZero() {
		add("Vehicle", "Estimated Damage", a.EstimatedDamage.String())
	}

	o := rec.OtherFields
	add("Other", "Claim Type", o.ClaimType)
	add("Other", "Agency", o.AgencyName)
	add("Other", "Agency Contact", o.AgencyContact)

	return rows
}
