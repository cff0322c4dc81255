package tasks

import (
	"context"
	"testing"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/horcrux-nas/horcruxd/internal/scheduler"
)

type fakeScriptRunner struct {
	gotScript string
	gotEnv    map[string]string
	exitCode  int
	stdout    string
	stderr    string
	err       error
}

func (f *fakeScriptRunner) Run(ctx context.Context, script string, env map[string]string) (int, string, string, error) {
	f.gotScript = script
	f.gotEnv = env
	return f.exitCode, f.stdout, f.stderr, f.err
}

func TestCustomJobSetsEnvAndReturnsOutput(t *testing.T) {
	fake := &fakeScriptRunner{exitCode: 0, stdout: "hello\n"}
	deps := &Deps{Scripts: fake}
	job := &scheduler.Job{
		ID:     "job-1",
		Name:   "say hello",
		Target: "tank/data",
		Params: map[string]any{"script": "echo hello"},
	}

	out, err := runCustom(context.Background(), deps, job)
	if err != nil {
		t.Fatalf("runCustom: %v", err)
	}
	if fake.gotEnv["HORCRUX_JOB_ID"] != "job-1" || fake.gotEnv["HORCRUX_JOB_NAME"] != "say hello" || fake.gotEnv["HORCRUX_JOB_TARGET"] != "tank/data" {
		t.Errorf("env = %+v, missing expected HORCRUX_JOB_* vars", fake.gotEnv)
	}
	if out["stdout"] != "hello\n" {
		t.Errorf("stdout = %v, want %q", out["stdout"], "hello\n")
	}
}

func TestCustomJobMissingScriptIsValidation(t *testing.T) {
	deps := &Deps{Scripts: &fakeScriptRunner{}}
	job := &scheduler.Job{ID: "job-2", Params: map[string]any{}}

	_, err := runCustom(context.Background(), deps, job)
	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.Validation {
		t.Fatalf("expected Validation error, got %v", err)
	}
}

func TestCustomJobNonZeroExitIsFailed(t *testing.T) {
	fake := &fakeScriptRunner{exitCode: 1, stderr: "boom"}
	deps := &Deps{Scripts: fake}
	job := &scheduler.Job{ID: "job-3", Params: map[string]any{"script": "exit 1"}}

	_, err := runCustom(context.Background(), deps, job)
	if kind, ok := horcruxerr.KindOf(err); !ok || kind != horcruxerr.Internal {
		t.Fatalf("expected Internal error, got %v", err)
	}
}
