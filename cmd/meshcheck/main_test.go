package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ormasoftchile/meshcheck/pkg/history"
	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

const (
	storeDir  = "../../testdata/store"
	ecommerce = "../../testdata/solutions/ecommerce.yaml"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", ecommerce)
	require.NoError(t, err)
	assert.Contains(t, out, "E-commerce Customer Support")
	assert.Contains(t, out, "✓ valid")
}

func TestValidate_Invalid(t *testing.T) {
	out, _, err := run(t, "validate", "../../testdata/solutions/invalid-role.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, string(validate.CheckSchemaValid))
}

func TestValidate_DeployJSON(t *testing.T) {
	out, _, err := run(t, "validate", "--deploy", "--json", "--store", storeDir,
		filepath.Join(storeDir, "solutions", "ecommerce-support.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed with 1 error(s)")

	var res validate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, validate.CheckSkillLoadable, res.Errors[0].Check)
	assert.Equal(t, "refund-approval", res.Errors[0].Skill)
	assert.Empty(t, res.Warnings)
}

func TestReport_GateFails(t *testing.T) {
	out, _, err := run(t, "report", "--store", storeDir, "--json", "ecommerce-support")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release gate failed")

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, "ecommerce-support", r.SolutionID)
	assert.Equal(t, 1, r.Summary.Errors)
}

func TestReport_CustomGate(t *testing.T) {
	out, _, err := run(t, "report", "--store", storeDir, "--gate", "errors <= 1", "ecommerce-support")
	require.NoError(t, err)
	assert.Contains(t, out, "gate passed: errors <= 1")
	assert.Contains(t, out, "Level 2: completeness")
}

func TestReport_Args(t *testing.T) {
	_, _, err := run(t, "report", "--store", storeDir)
	assert.Error(t, err)
	_, _, err = run(t, "report", "--store", storeDir, "--file", ecommerce, "ecommerce-support")
	assert.Error(t, err)
	_, _, err = run(t, "report", "--store", storeDir, "--gate", "score >=", "ecommerce-support")
	assert.Error(t, err)
}

func TestReport_Findings(t *testing.T) {
	findings := filepath.Join(t.TempDir(), "findings.json")
	require.NoError(t, os.WriteFile(findings,
		[]byte(`[{"check":"prompt_quality","severity":"info","message":"prompt could name its tools","skill":"order-support"}]`), 0o644))

	out, _, err := run(t, "report", "--store", storeDir, "--file", ecommerce, "--findings", findings,
		"--json", "--gate", "true")
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Level3Intelligent, 1)
	assert.Equal(t, "order-support", r.Level3Intelligent[0].Skill)
}

func TestReport_RecordAndHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	_, _, err := run(t, "report", "--store", storeDir, "--history", db, "--record", "--gate", "true", "ecommerce-support")
	require.NoError(t, err)

	out, _, err := run(t, "history", "list", "--history", db, "--json", "ecommerce-support")
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].Digest)

	out, _, err = run(t, "history", "show", "--history", db, "--json", entries[0].ID)
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, entries[0].ID, r.ID)

	out, _, err = run(t, "history", "list", "--history", db, "other")
	require.NoError(t, err)
	assert.Contains(t, out, "no recorded reports")

	_, _, err = run(t, "history", "show", "--history", db, "missing")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestDiagram(t *testing.T) {
	out, _, err := run(t, "diagram", "--format", "ascii", ecommerce)
	require.NoError(t, err)
	assert.Contains(t, out, "Entry points")

	out, _, err = run(t, "diagram", ecommerce)
	require.NoError(t, err)
	assert.Contains(t, out, "flowchart LR")

	_, _, err = run(t, "diagram", "--format", "svg", ecommerce)
	assert.Error(t, err)
}

func TestSchemaExport(t *testing.T) {
	out, _, err := run(t, "schema", "export", "skill")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, "skill-v1.json")

	out, _, err = run(t, "schema", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "solution-v1.json")

	_, _, err = run(t, "schema", "export", "runbook")
	assert.Error(t, err)
}

func TestMutate(t *testing.T) {
	dir := t.TempDir()
	ops := filepath.Join(dir, "ops.yaml")
	require.NoError(t, os.WriteFile(ops, []byte("name: Renamed support\n"), 0o644))

	out, stderr, err := run(t, "mutate", "--ops", ops, ecommerce)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Renamed support")
	assert.Contains(t, stderr, "✓ name")

	dst := filepath.Join(dir, "out.yaml")
	_, _, err = run(t, "mutate", "--ops", ops, "-o", dst, ecommerce)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Renamed support")
}

func TestMutate_RejectsInvalidResult(t *testing.T) {
	dir := t.TempDir()
	ops := filepath.Join(dir, "ops.yaml")
	require.NoError(t, os.WriteFile(ops, []byte("skills_delete: refund-approval\n"), 0o644))

	_, stderr, err := run(t, "mutate", "--ops", ops, ecommerce)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutated solution is invalid")
	assert.Contains(t, stderr, "refund-approval")

	out, _, err := run(t, "mutate", "--ops", ops, "--force", ecommerce)
	require.NoError(t, err)
	assert.NotContains(t, out, "- id: refund-approval")

	_, _, err = run(t, "mutate", ecommerce)
	assert.Error(t, err, "--ops is required")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "meshcheck dev (build: unknown)\n", out)
}

func TestConfigErrors(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "version")
	assert.Error(t, err)
	_, _, err = run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	assert.Error(t, err)
}
