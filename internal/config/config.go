// Package config defines horcruxd's on-disk configuration and loads it the
// way the teacher's copilot config loader does: defaults overlaid by YAML,
// with ${VAR}/$VAR references expanded from the environment (and .env
// files) before parsing. It does not consult the OS keyring.
package config

// Config is the top-level daemon configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	SMB       SMBConfig       `yaml:"smb"`
	Replication ReplicationConfig `yaml:"replication"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig configures the central job/container store. Backend
// selects which storage.BackendFactory opens it: "sqlite" (default) for the
// appliance's local file, or "postgres" for a shared instance — e.g. a pair
// of appliances in an HA configuration pointed at one external database
// instead of replicating a SQLite file between them.
type DatabaseConfig struct {
	// Backend is "sqlite" (default) or "postgres".
	Backend string `yaml:"backend"`
	// Path is the SQLite database file path (default: "./data/horcrux.db").
	Path string `yaml:"path"`
	// Postgres holds connection settings, used only when Backend is
	// "postgres".
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig mirrors the connection fields of a standard libpq DSN.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SchedulerConfig configures the job scheduler.
type SchedulerConfig struct {
	// MaxHistory bounds the in-memory execution history ring buffer.
	MaxHistory int `yaml:"max_history"`
	// StopTimeoutSeconds bounds how long Stop waits for the tick loop to
	// exit before giving up.
	StopTimeoutSeconds int `yaml:"stop_timeout_seconds"`
}

// SMBConfig configures the Samba control plane.
type SMBConfig struct {
	// ConfigPath is the smb.conf path this daemon manages.
	ConfigPath string `yaml:"config_path"`
	// ServiceAccount names the Samba service account. It is loaded and
	// saved with the config but not read by any code path; no keyring
	// lookup is made for it.
	ServiceAccount string `yaml:"service_account"`
}

// ReplicationConfig configures the default SSH replication transport.
type ReplicationConfig struct {
	// SSHUser is the account replication pushes connect as.
	SSHUser string `yaml:"ssh_user"`
	// PinnedHostKeysFile names a known_hosts-style file of host key pins.
	// It is loaded with the config but not read: horcruxd and horcruxctl
	// build the replication service with no pinned key, so any host key
	// is accepted.
	PinnedHostKeysFile string `yaml:"pinned_host_keys_file"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns a Config with every field set to its documented default.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Backend: "sqlite",
			Path:    "./data/horcrux.db",
		},
		Scheduler: SchedulerConfig{
			MaxHistory:         10000,
			StopTimeoutSeconds: 10,
		},
		SMB: SMBConfig{
			ConfigPath:     "/etc/samba/smb.conf",
			ServiceAccount: "",
		},
		Replication: ReplicationConfig{
			SSHUser: "root",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
