package amexec

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/procexec"
)

const executorTestPrefix = "amexec:executor_test"

type recordedRun struct {
	argv   []string
	result *procexec.Result
	err    error
}

func (r *recordedRun) run(_ context.Context, argv []string, _ procexec.Options) (*procexec.Result, error) {
	r.argv = argv
	if r.err != nil {
		return nil, r.err
	}
	if r.result == nil {
		return &procexec.Result{}, nil
	}
	return r.result, nil
}

func TestExecutor_Argv(t *testing.T) {
	e := New(Config{User: "current"})
	in := intent.Intent{
		Action:     intent.ActionView,
		Data:       "https://yes",
		Categories: []string{intent.CategoryDefault, intent.CategoryLauncher},
		Flags:      intent.FlagActivityNewTask,
		Component:  "com.example/.Main",
	}
	got := e.Argv("start", in)
	want := []string{
		"am", "start", "--user", "current",
		"-a", intent.ActionView,
		"-d", "https://yes",
		"-c", intent.CategoryDefault, "-c", intent.CategoryLauncher,
		"-f", "0x10000000",
		"-n", "com.example/.Main",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s - Argv() = %v, want %v", executorTestPrefix, got, want)
	}
}

func TestExecutor_Verbs(t *testing.T) {
	tests := []struct {
		name string
		call func(e *Executor) error
		verb string
	}{
		{"activity", func(e *Executor) error { return e.StartActivity(context.Background(), intent.Intent{Action: "A"}) }, "start"},
		{"broadcast", func(e *Executor) error { return e.BroadcastIntent(context.Background(), intent.Intent{Action: "A"}) }, "broadcast"},
		{"service", func(e *Executor) error { return e.StartService(context.Background(), intent.Intent{Action: "A"}) }, "startservice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordedRun{}
			e := New(Config{})
			e.run = rec.run
			if err := tt.call(e); err != nil {
				t.Fatalf("%s - unexpected error: %v", executorTestPrefix, err)
			}
			if len(rec.argv) < 2 || rec.argv[1] != tt.verb {
				t.Errorf("%s - argv = %v, want verb %q", executorTestPrefix, rec.argv, tt.verb)
			}
		})
	}
}

func TestExecutor_FailureModes(t *testing.T) {
	tests := []struct {
		name    string
		rec     *recordedRun
		wantMsg string
	}{
		{
			name:    "non-zero exit",
			rec:     &recordedRun{result: &procexec.Result{ExitCode: 255, Stderr: []string{"Security exception"}}},
			wantMsg: "Security exception",
		},
		{
			name:    "error on stdout",
			rec:     &recordedRun{result: &procexec.Result{Stdout: []string{"Starting: Intent { }", "Error: Activity class does not exist."}}},
			wantMsg: "Error: Activity class does not exist.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Config{})
			e.run = tt.rec.run
			err := e.StartActivity(context.Background(), intent.Intent{Action: "A"})
			if err == nil || err.Error() != tt.wantMsg {
				t.Fatalf("%s - err = %v, want %q", executorTestPrefix, err, tt.wantMsg)
			}
			var exitErr *procexec.ExitError
			if !errors.As(err, &exitErr) {
				t.Errorf("%s - expected *procexec.ExitError, got %T", executorTestPrefix, err)
			}
		})
	}
}

func TestExecutor_StartFailureWrapped(t *testing.T) {
	cause := errors.New("exec: not found")
	e := New(Config{})
	e.run = (&recordedRun{err: cause}).run
	if err := e.StartService(context.Background(), intent.Intent{}); !errors.Is(err, cause) {
		t.Fatalf("%s - expected wrapped cause, got %v", executorTestPrefix, err)
	}
}
