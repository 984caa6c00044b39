package types

import "fmt"

// Default ports applied by ApplyDefaults.
const (
	DefaultDatabasePort = 3306
	DefaultSSHPort      = 22
)

// Config holds the database credentials and optional SSH tunnel settings for
// one invocation. It is built once at startup and passed into the engine
// explicitly; nothing reads ambient or global state.
type Config struct {
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	SSH      *SSHConfig     `yaml:"ssh" mapstructure:"ssh"`
}

// DatabaseConfig identifies the MySQL database holding the run statistics.
// When SSH is configured, Host and Port describe the database as seen from
// the operator's machine and are superseded by the tunnel's local address.
type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Name     string `yaml:"name" mapstructure:"name"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// Addr returns the host:port address for a direct connection.
func (d DatabaseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// SSHConfig describes an SSH local port forward used to reach a database
// that is only listening on a remote host.
type SSHConfig struct {
	Host          string `yaml:"host" mapstructure:"host"`
	Port          int    `yaml:"port" mapstructure:"port"`
	User          string `yaml:"user" mapstructure:"user"`
	KeyFile       string `yaml:"key_file" mapstructure:"key_file"`
	KeyPassphrase string `yaml:"key_passphrase" mapstructure:"key_passphrase"`

	// LocalPort is the local listen port; 0 picks an ephemeral port.
	LocalPort int `yaml:"local_port" mapstructure:"local_port"`

	// RemoteHost and RemotePort name the database as seen from the SSH
	// host, usually localhost:3306.
	RemoteHost string `yaml:"remote_host" mapstructure:"remote_host"`
	RemotePort int    `yaml:"remote_port" mapstructure:"remote_port"`
}

// ApplyDefaults fills zero-valued fields with their conventional defaults.
func (c *Config) ApplyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDatabasePort
	}
	if c.SSH != nil {
		if c.SSH.Port == 0 {
			c.SSH.Port = DefaultSSHPort
		}
		if c.SSH.RemoteHost == "" {
			c.SSH.RemoteHost = "localhost"
		}
		if c.SSH.RemotePort == 0 {
			c.SSH.RemotePort = DefaultDatabasePort
		}
	}
}

// Validate checks that the Config is complete enough to connect. It returns
// an error wrapping ErrValidation naming the offending field.
func (c Config) Validate() error {
	if c.Database.Host == "" && c.SSH == nil {
		return fmt.Errorf("%w: database.host must not be empty", ErrValidation)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("%w: database.name must not be empty", ErrValidation)
	}
	if c.Database.User == "" {
		return fmt.Errorf("%w: database.user must not be empty", ErrValidation)
	}
	if c.SSH != nil {
		if c.SSH.Host == "" {
			return fmt.Errorf("%w: ssh.host must not be empty", ErrValidation)
		}
		if c.SSH.User == "" {
			return fmt.Errorf("%w: ssh.user must not be empty", ErrValidation)
		}
		if c.SSH.KeyFile == "" {
			return fmt.Errorf("%w: ssh.key_file must not be empty", ErrValidation)
		}
	}
	return nil
}
