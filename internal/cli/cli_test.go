package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/model"
)

// run executes the root command with flags and viper reset. Commands are
// package globals, so state would otherwise leak between tests.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)
	resetViper()
	t.Cleanup(func() {
		resetFlags(rootCmd)
		resetViper()
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func tempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func writeNotice(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "pipeline", "testdata", name))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"process", "rules", "history", "config", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCmd(t *testing.T) {
	tempHome(t)
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "claimflow dev\n", stdout)
}

func TestProcessCmd_JSONToStdout(t *testing.T) {
	tempHome(t)
	notice := writeNotice(t, "property_damage.txt")

	stdout, stderr, err := run(t, "process", notice, "--json", "-", "--no-cache")
	require.NoError(t, err)

	var res model.ClaimResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, model.RouteFastTrack, res.RecommendedRoute)
	assert.Equal(t, "PA-2024-00871", res.ExtractedFields.PolicyInfo.PolicyNumber)
	assert.Empty(t, res.MissingFields)

	assert.Contains(t, stderr, "Route: Fast-track")
}

func TestProcessCmd_DefaultJSONPath(t *testing.T) {
	tempHome(t)
	notice := writeNotice(t, "injury.txt")

	_, stderr, err := run(t, "process", notice)
	require.NoError(t, err)

	matches, err := filepath.Glob("claim_result_*.json")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, stderr, "✓ Wrote JSON: "+matches[0])

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	var res model.ClaimResult
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, model.RouteSpecialist, res.RecommendedRoute)
}

func TestProcessCmd_EmptyJSONPathSkipsFile(t *testing.T) {
	tempHome(t)
	notice := writeNotice(t, "property_damage.txt")
	md := filepath.Join(t.TempDir(), "report.md")

	_, _, err := run(t, "process", notice, "--json", "", "--md", md, "--no-footer")
	require.NoError(t, err)

	matches, err := filepath.Glob("claim_result_*.json")
	require.NoError(t, err)
	assert.Empty(t, matches)

	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Claim Routing Report")
	assert.NotContains(t, string(data), "Generated by claimflow")
}

func TestProcessCmd_ThresholdFlag(t *testing.T) {
	tempHome(t)
	notice := writeNotice(t, "property_damage.txt")

	stdout, _, err := run(t, "process", notice, "--json", "-", "--threshold", "1000")
	require.NoError(t, err)

	var res model.ClaimResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, model.RouteStandardReview, res.RecommendedRoute)
	assert.Contains(t, res.Reasoning, "$1000.00")
}

func TestProcessCmd_ThresholdFromEnv(t *testing.T) {
	tempHome(t)
	t.Setenv("CLAIMFLOW_ROUTING_FAST_TRACK_THRESHOLD", "1000")
	notice := writeNotice(t, "property_damage.txt")

	stdout, _, err := run(t, "process", notice, "--json", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"recommendedRoute": "Standard Review"`)
}

func TestProcessCmd_MissingFile(t *testing.T) {
	tempHome(t)
	_, _, err := run(t, "process", filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "process failed")
}

func TestProcessCmd_RequiresOneArg(t *testing.T) {
	tempHome(t)
	_, _, err := run(t, "process")
	require.Error(t, err)
}

func TestProcessCmd_MetricsFile(t *testing.T) {
	tempHome(t)
	notice := writeNotice(t, "property_damage.txt")
	prom := filepath.Join(t.TempDir(), "claimflow.prom")

	_, _, err := run(t, "process", notice, "--json", "", "--metrics-file", prom)
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `claimflow_claims_processed_total{route="Fast-track"} 1`)
}

func TestHistoryCmd_AfterStore(t *testing.T) {
	tempHome(t)
	fast := writeNotice(t, "property_damage.txt")
	injury := writeNotice(t, "injury.txt")

	for _, notice := range []string{fast, injury} {
		_, _, err := run(t, "process", notice, "--json", "", "--store")
		require.NoError(t, err)
	}

	stdout, _, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PROCESSED")
	assert.Contains(t, stdout, "Fast-track")
	assert.Contains(t, stdout, "Specialist Queue")
	assert.Contains(t, stdout, "Totals:")

	stdout, _, err = run(t, "history", "--route", "Specialist Queue", "--json")
	require.NoError(t, err)
	var results []model.ClaimResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, model.RouteSpecialist, results[0].RecommendedRoute)
}

func TestHistoryCmd_Empty(t *testing.T) {
	tempHome(t)
	stdout, _, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No stored claims.")

	stdout, _, err = run(t, "history", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestHistoryCmd_UnknownRoute(t *testing.T) {
	tempHome(t)
	_, _, err := run(t, "history", "--route", "Express")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown route "Express"`)
}

func TestRulesCmd(t *testing.T) {
	tempHome(t)
	stdout, _, err := run(t, "rules")
	require.NoError(t, err)

	assert.Contains(t, stdout, "policyInfo.policyNumber")
	assert.Contains(t, stdout, "Estimated Damage Amount")
	assert.Contains(t, stdout, "fast-track threshold $25000.00")
	assert.Contains(t, stdout, "Manual Review")
	assert.Contains(t, stdout, "Standard Review")
}

func TestConfigCmd_InitAndShow(t *testing.T) {
	home := tempHome(t)

	stdout, _, err := run(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(home, ".claimflow", "config.yaml")
	assert.Contains(t, stdout, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CLAIMFLOW_")
	assert.Contains(t, string(data), "fast_track_threshold: 25000")

	_, _, err = run(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = run(t, "config", "init", "--force")
	require.NoError(t, err)

	stdout, _, err = run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "routing:")
	assert.Contains(t, stdout, "fast_track_threshold: 25000")
}

func TestConfigCmd_FileOverridesDefaults(t *testing.T) {
	tempHome(t)
	cfgPath := filepath.Join(t.TempDir(), "claimflow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("routing:\n  fast_track_threshold: 5000\n"), 0o644))

	stdout, _, err := run(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fast_track_threshold: 5000")
}

func TestConfigCmd_InvalidConfigFails(t *testing.T) {
	tempHome(t)
	t.Setenv("CLAIMFLOW_SOURCE_MAX_BYTES", "-1")

	_, _, err := run(t, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
