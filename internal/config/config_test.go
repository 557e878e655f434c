package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markdown-repair/internal/logger"
	"markdown-repair/internal/types"
)

func TestNewConfigManager(t *testing.T) {
	t.Run("with custom path", func(t *testing.T) {
		cm, err := NewConfigManager("/tmp/test-config.json")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/test-config.json", cm.GetConfigPath())
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		cm, err := NewConfigManager("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("markdown-repair", DefaultConfigFileName),
			filepath.Join(filepath.Base(filepath.Dir(cm.GetConfigPath())), filepath.Base(cm.GetConfigPath())))
	})
}

func TestConfigManager_Load(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		want    *types.Config
		wantErr types.ErrorCode
	}{
		{
			name: "missing file uses defaults",
			want: Default(),
		},
		{
			name: "absent fields keep defaults",
			file: `{"default_language": "python", "mode": "improve"}`,
			want: &types.Config{
				DefaultLanguage: "python",
				KeepFenceChar:   true,
				CloseOnNewline:  true,
				Mode:            types.ModeImprove,
				LogLevel:        DefaultLogLevel,
			},
		},
		{
			name: "explicit false respected",
			file: `{"keep_fence_char": false, "close_on_newline": false, "log_level": "debug"}`,
			want: &types.Config{
				Mode:     DefaultMode,
				LogLevel: "debug",
			},
		},
		{
			name: "environment overrides file",
			file: `{"default_language": "python", "close_on_newline": true}`,
			env: map[string]string{
				EnvDefaultLanguage: "bash",
				EnvCloseOnNewline:  "false",
				EnvLogLevel:        "warn",
			},
			want: &types.Config{
				DefaultLanguage: "bash",
				KeepFenceChar:   true,
				Mode:            DefaultMode,
				LogLevel:        "warn",
			},
		},
		{
			name:    "invalid json",
			file:    `{"mode": `,
			wantErr: types.ErrConfig,
		},
		{
			name:    "unknown mode",
			file:    `{"mode": "verbose"}`,
			wantErr: types.ErrConfig,
		},
		{
			name:    "unknown log level",
			env:     map[string]string{EnvLogLevel: "loud"},
			wantErr: types.ErrConfig,
		},
		{
			name:    "bad boolean in environment",
			env:     map[string]string{EnvCloseOnNewline: "sometimes"},
			wantErr: types.ErrConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvDefaultLanguage, EnvCloseOnNewline, EnvLogLevel} {
				t.Setenv(k, tt.env[k])
			}
			path := filepath.Join(t.TempDir(), "config.json")
			if tt.file != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0644))
			}

			cm, err := NewConfigManager(path)
			require.NoError(t, err)
			err = cm.Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, types.IsCode(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cm.GetConfig())
		})
	}
}

func TestConfigManager_SaveLoadRoundTrip(t *testing.T) {
	t.Setenv(EnvDefaultLanguage, "")
	t.Setenv(EnvCloseOnNewline, "")
	t.Setenv(EnvLogLevel, "")

	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)

	want := &types.Config{
		DefaultLanguage:   "go",
		CanonicalizeTags:  true,
		ExtendedDetection: true,
		Mode:              types.ModeIntermediate,
		LogLevel:          "error",
		LogFile:           "/tmp/mdrepair.log",
	}
	cm.SetConfig(want)
	require.NoError(t, cm.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	loaded, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Load())
	assert.Equal(t, want, loaded.GetConfig())
}

func TestConfigManager_LoggerConfig(t *testing.T) {
	cm, err := NewConfigManager("/tmp/unused.json")
	require.NoError(t, err)

	lc := cm.LoggerConfig()
	assert.Equal(t, logger.LevelInfo, lc.Level)
	assert.Empty(t, lc.LogFilePath)

	cm.SetConfig(&types.Config{Mode: DefaultMode, LogLevel: "debug", LogFile: "/var/log/md.log"})
	lc = cm.LoggerConfig()
	assert.Equal(t, logger.LevelDebug, lc.Level)
	assert.Equal(t, "/var/log/md.log", lc.LogFilePath)
}

func TestGetConfig_NilFallsBackToDefault(t *testing.T) {
	cm := &ConfigManager{}
	assert.Equal(t, Default(), cm.GetConfig())
}
