package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marco79423/kb/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingDefaultFile(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), DefaultFileName), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), settings)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeSettings(t, `
build:
  command: ["mdbook", "build", "--dest-dir", "out"]
  outputDir: out
transport:
  kind: native
  user: deploy
  port: 2222
  dialTimeout: 3s
`)

	settings, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"mdbook", "build", "--dest-dir", "out"}, settings.Build.Command)
	assert.Equal(t, "out", settings.Build.OutputDir)
	assert.Equal(t, model.TransportNative, settings.Transport.Kind)
	assert.Equal(t, "deploy", settings.Transport.User)
	assert.Equal(t, 2222, settings.Transport.Port)
	assert.Equal(t, 3*time.Second, settings.Transport.DialTimeout)
	// 沒寫到的欄位保留預設值
	assert.Equal(t, Default().Transport.KnownHostsFile, settings.Transport.KnownHostsFile)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeSettings(t, "build: [")
	_, err := Load(path, true)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr bool
	}{
		{name: "defaults", mutate: func(s *Settings) {}},
		{name: "native", mutate: func(s *Settings) { s.Transport.Kind = model.TransportNative }},
		{name: "empty build command", mutate: func(s *Settings) { s.Build.Command = nil }, wantErr: true},
		{name: "blank build command", mutate: func(s *Settings) { s.Build.Command = []string{" "} }, wantErr: true},
		{name: "empty output dir", mutate: func(s *Settings) { s.Build.OutputDir = "" }, wantErr: true},
		{name: "unknown transport", mutate: func(s *Settings) { s.Transport.Kind = "ftp" }, wantErr: true},
		{name: "negative port", mutate: func(s *Settings) { s.Transport.Port = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := Default()
			tt.mutate(&settings)
			err := settings.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateExpandsHome(t *testing.T) {
	settings := Default()
	settings.Transport.KeyFile = "~/.ssh/id_ed25519"
	require.NoError(t, settings.Validate())

	assert.NotContains(t, settings.Transport.KeyFile, "~")
	assert.NotContains(t, settings.Transport.KnownHostsFile, "~")
	assert.True(t, filepath.IsAbs(settings.Transport.KnownHostsFile))
}
