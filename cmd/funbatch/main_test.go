package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCommand()
	want := map[string]bool{
		"run":     false,
		"scene":   false,
		"install": false,
		"plugin":  false,
		"history": false,
		"config":  false,
	}
	for _, cmd := range root.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	root := newRootCommand()
	root.SetArgs([]string{"config", "init", "--path", target})
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[fungen]") {
		t.Fatalf("expected fungen section in sample, got:\n%s", data)
	}
}

func TestConfigInitRefusesExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing\n"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	root := newRootCommand()
	root.SetArgs([]string{"config", "init", "--path", target})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for existing config")
	}
}

func TestWriteJSONIndentsToCommandOut(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := newRootCommand()
	cmd.SetOut(out)

	payload := map[string]int{"succeeded": 2}
	if err := writeJSON(cmd, payload); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if got := out.String(); got != "{\n  \"succeeded\": 2\n}\n" {
		t.Fatalf("unexpected JSON output: %q", got)
	}
}

func TestSceneCommandRejectsNonNumericID(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", t.TempDir())

	root := newRootCommand()
	root.SetArgs([]string{"scene", "abc", "--config", cfgPath})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for non-numeric scene id")
	}
}
