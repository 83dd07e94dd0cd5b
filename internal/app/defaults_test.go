package app

import (
	"path/filepath"
	"testing"
)

func TestGetDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("HOLDFAST_CONFIG_PATH", "/tmp/custom/holdfast.toml")
	t.Setenv("HOLDFAST_HOME", "/tmp/custom/data")

	d, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults: %v", err)
	}
	if d["config_path"] != "/tmp/custom/holdfast.toml" {
		t.Errorf("config_path = %q", d["config_path"])
	}
	if d["base_dir"] != "/tmp/custom/data" {
		t.Errorf("base_dir = %q", d["base_dir"])
	}
	if d["log_dir"] != filepath.Join("/tmp/custom/data", "log") {
		t.Errorf("log_dir = %q", d["log_dir"])
	}
}

func TestGetDefaults_HomeFallback(t *testing.T) {
	t.Setenv("HOLDFAST_CONFIG_PATH", "")
	t.Setenv("HOLDFAST_HOME", "")
	t.Setenv("HOME", "/home/tester")

	d, err := GetDefaults()
	if err != nil {
		t.Fatalf("GetDefaults: %v", err)
	}
	if want := filepath.Join("/home/tester", ".config", "holdfast.toml"); d["config_path"] != want {
		t.Errorf("config_path = %q, want %q", d["config_path"], want)
	}
	if want := filepath.Join("/home/tester", ".local", "share", "holdfast"); d["base_dir"] != want {
		t.Errorf("base_dir = %q, want %q", d["base_dir"], want)
	}
}
