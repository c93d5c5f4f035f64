package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const training = "../../training"

func asset(parts ...string) string {
	return filepath.Join(append([]string{training}, parts...)...)
}

// execute runs the CLI with a config that only knows the training profiles.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "vrkit.yaml")
	body := "profiles:\n  dirs: [" + asset("profiles") + "]\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateTrainingProgram(t *testing.T) {
	out, err := execute(t, "validate", asset("programs", "valve_service.yaml"), "--scene", asset("scenes", "service_bay.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "valve service: ok (7 steps)")
}

func TestValidateReportsUnresolvedTargets(t *testing.T) {
	prog := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(prog, []byte(`
name: broken
modules:
  - name: m
    task_groups:
      - name: g
        steps:
          - name: tighten
            type: tighten_valve
            target: Valve_Z
`), 0o644))

	out, err := execute(t, "-o", "json", "validate", prog, "--scene", asset("scenes", "service_bay.yaml"))
	require.ErrorIs(t, err, errInvalidProgram)

	var res validateResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Valid)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "error", res.Issues[0].Severity)
	assert.Contains(t, res.Issues[0].Message, "Valve_Z")
}

func TestRunRehearsesProgramWithScript(t *testing.T) {
	out, err := execute(t, "-o", "json", "run", asset("programs", "valve_service.yaml"),
		"--scene", asset("scenes", "service_bay.yaml"),
		"--script", asset("scripts", "valve_service.yaml"))
	require.NoError(t, err)

	var res runResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Finished)
	assert.Equal(t, "valve service", res.Program)
	assert.Zero(t, res.Failures)
	assert.NotEmpty(t, res.RunID)
	assert.Positive(t, res.Ticks)
}

func TestRunFailsWhenScriptStopsShort(t *testing.T) {
	script := filepath.Join(t.TempDir(), "short.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
actions:
  - grab: Valve_A
  - move: {object: Valve_A, to: Socket_A}
  - attach: {object: Valve_A, socket: Socket_A}
  - wait: 5
`), 0o644))

	out, err := execute(t, "run", asset("programs", "valve_service.yaml"),
		"--scene", asset("scenes", "service_bay.yaml"),
		"--script", script)
	require.ErrorIs(t, err, errIncomplete)
	assert.Contains(t, out, "stopped in install / tighten valve with 0/1 steps done")
}

func TestProfilesList(t *testing.T) {
	out, err := execute(t, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "ball_valve")
	assert.Contains(t, out, "pressure_dial")
	assert.Contains(t, out, "valve_socket")

	out, err = execute(t, "-o", "json", "profiles", "list")
	require.NoError(t, err)
	var rows []profileRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "ball_valve", rows[0].Name)
	assert.Equal(t, "valve", rows[0].Kind)
}

func TestRejectsBadOutputFormat(t *testing.T) {
	_, err := execute(t, "-o", "xml", "profiles", "list")
	require.Error(t, err)
}
