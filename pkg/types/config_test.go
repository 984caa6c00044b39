package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Host: "db.example.net",
			Name: "stats",
			User: "maintenance",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid direct connection",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing host without tunnel",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: true,
		},
		{
			name: "missing host with tunnel is valid",
			mutate: func(c *Config) {
				c.Database.Host = ""
				c.SSH = &SSHConfig{Host: "bastion", User: "ops", KeyFile: "/home/ops/.ssh/id_ed25519"}
			},
		},
		{
			name:    "missing database name",
			mutate:  func(c *Config) { c.Database.Name = "" },
			wantErr: true,
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: true,
		},
		{
			name: "tunnel without key file",
			mutate: func(c *Config) {
				c.SSH = &SSHConfig{Host: "bastion", User: "ops"}
			},
			wantErr: true,
		},
		{
			name: "tunnel without host",
			mutate: func(c *Config) {
				c.SSH = &SSHConfig{User: "ops", KeyFile: "/home/ops/.ssh/id_ed25519"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.SSH = &SSHConfig{Host: "bastion", User: "ops", KeyFile: "/k"}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultDatabasePort, cfg.Database.Port)
	assert.Equal(t, DefaultSSHPort, cfg.SSH.Port)
	assert.Equal(t, "localhost", cfg.SSH.RemoteHost)
	assert.Equal(t, DefaultDatabasePort, cfg.SSH.RemotePort)
}

func TestConfigApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Port = 3307
	cfg.SSH = &SSHConfig{Host: "bastion", User: "ops", KeyFile: "/k", Port: 2222, RemoteHost: "10.0.0.5", RemotePort: 3308}
	cfg.ApplyDefaults()

	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, 2222, cfg.SSH.Port)
	assert.Equal(t, "10.0.0.5", cfg.SSH.RemoteHost)
	assert.Equal(t, 3308, cfg.SSH.RemotePort)
}

func TestAdjustmentDelta(t *testing.T) {
	adj := Adjustment{RunID: 1, CPID: 2, Old: 12.0, New: 17.5}
	assert.InDelta(t, 5.5, adj.Delta(), 1e-9)
}
