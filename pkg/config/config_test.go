package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "vault")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "vault" || s.Port != 9000 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if s.Name != "default" || s.Port != 8080 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadOptional_OverlaysFile(t *testing.T) {
	p := writeFile(t, "port: 9100\n")
	s := sample{Name: "default", Port: 8080}
	if err := LoadOptional(p, &s); err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if s.Name != "default" || s.Port != 9100 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoadOptional_StillValidates(t *testing.T) {
	var s sample
	if err := LoadOptional("", &s); err == nil {
		t.Fatal("expected validation error for zero config")
	}
}
