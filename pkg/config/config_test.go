package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
	Port  int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "abc")
	p := writeFile(t, "name: demo\ntoken: ${SAMPLE_TOKEN}\nport: 80\n")

	var s sample
	require.NoError(t, Load(p, &s))
	assert.Equal(t, sample{Name: "demo", Token: "abc", Port: 80}, s)
}

func TestLoad_Validates(t *testing.T) {
	p := writeFile(t, "name: demo\n")
	var s sample
	err := Load(p, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be positive")
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &s))
}

func TestLoadOptional_KeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 1}
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s))
	assert.Equal(t, "default", s.Name)
}

func TestLoadOptional_OverlaysFile(t *testing.T) {
	p := writeFile(t, "name: file\n")
	s := sample{Name: "default", Port: 1}
	require.NoError(t, LoadOptional(p, &s))
	assert.Equal(t, sample{Name: "file", Port: 1}, s)
}

func TestLoadOptional_ValidatesDefaults(t *testing.T) {
	s := sample{}
	assert.Error(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s))
}
