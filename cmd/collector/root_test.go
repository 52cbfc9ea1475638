package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	want := []string{"worker", "enqueue", "validate", "rotate", "verify"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("UNRESOLVED_HOST_POLICY", "warn")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "http://169.254.169.254/latest", "http://minio:9000/"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "2 of 2") {
		t.Fatalf("Execute() = %v, expected both urls rejected", err)
	}
	if strings.Count(out.String(), "REJECT") != 2 {
		t.Errorf("output = %q", out.String())
	}
}

func TestEnqueueRequiresArgs(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"enqueue", "only-id"})
	if err := root.Execute(); err == nil {
		t.Error("expected an argument error")
	}
}
