package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/medicheck/internal/triage"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, "", "classify", "--bundles", "", "fever", "and", "cough")
	require.NoError(t, err)

	var r triage.Result
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, triage.SourceFallback, r.Source)
	assert.Equal(t, "Common Cold", r.Diagnoses[0])
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, `Model says: {"diagnoses":["Flu"],"recommendations":["Rest"]}`, "parse")
	require.NoError(t, err)
	assert.Contains(t, out, `"Flu"`)

	_, err = run(t, "nothing", "parse")
	assert.ErrorIs(t, err, triage.ErrParseFailure)
}

func TestAnalyzeCommandBypass(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MODEL_PROVIDER", "gemini")
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("TRIAGE_BUNDLES_FILE", "")

	out, err := run(t, "", "analyze", "--identity", "demo", "--age", "adult", "--gender", "male", "bad headache")
	require.NoError(t, err)
	assert.Contains(t, out, "Tension Headache")

	_, err = run(t, "", "analyze", "--identity", "demo", "--age", "infant", "cough")
	require.Error(t, err)
}

func TestVerifyCommandBypass(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "gemini")
	t.Setenv("ENABLE_DB", "false")
	t.Setenv("TRIAGE_BUNDLES_FILE", "")

	out, err := run(t, "", "verify", "Test")
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowed":true,"reason":"bypass"}`, out)
}
