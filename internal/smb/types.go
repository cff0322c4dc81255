// Package smb generates Samba configuration from a share model and wraps
// the external administrative command surface (testparm, smbcontrol,
// smbstatus, smbpasswd, pdbedit) used to apply and introspect it.
package smb

// CaseSensitivity controls the Samba "case sensitive" share parameter.
type CaseSensitivity string

const (
	CaseSensitive   CaseSensitivity = "sensitive"
	CaseInsensitive CaseSensitivity = "insensitive"
	CaseAuto        CaseSensitivity = "auto"
)

// ShareConfig is the SMB-specific configuration of a share; a Share with no
// ShareConfig is generated with defaultShareConfig's values, not the zero
// value's.
type ShareConfig struct {
	Browseable       bool
	ReadOnly         bool
	GuestOK          bool
	ValidUsers       []string
	ValidGroups      []string
	HostsAllow       []string
	HostsDeny        []string
	VFSObjects       []string
	RecycleBin       bool
	AuditLogging     bool
	Oplocks          bool
	CaseSensitive    CaseSensitivity
	ExtraParameters  map[string]string
}

// defaultShareConfig mirrors the original's NasShare::smb_config
// unwrap_or_default(): browseable, not read-only, no guest access, oplocks
// on, case sensitivity "auto" (Samba's own default).
func defaultShareConfig() ShareConfig {
	return ShareConfig{
		Browseable:    true,
		ReadOnly:      false,
		GuestOK:       false,
		Oplocks:       true,
		CaseSensitive: CaseAuto,
	}
}

// Share is one exported filesystem path.
type Share struct {
	Name        string
	Path        string
	Description string
	Enabled     bool
	SMBConfig   *ShareConfig
}

// GlobalConfig is the [global] section of smb.conf for the non-AD case.
type GlobalConfig struct {
	Workgroup         string
	ServerString      string
	NetbiosName       string // empty means omit the line
	Security          string
	MapToGuest        string
	LogLevel          int
	FruitEnabled      bool
	SpotlightEnabled  bool
	MinProtocol       string
	MaxProtocol       string
	LocalMaster       bool
	DomainMaster      bool
	WinsSupport       bool
	ExtraParameters   map[string]string
}

// DefaultGlobalConfig mirrors SmbGlobalConfig::default().
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Workgroup:    "WORKGROUP",
		ServerString: "Horcrux NAS Server",
		Security:     "user",
		MapToGuest:   "Bad User",
		LogLevel:     1,
		FruitEnabled: true,
		MinProtocol:  "SMB2",
		MaxProtocol:  "SMB3",
		LocalMaster:  true,
	}
}

// AdConfig configures the AD-integrated global section variant.
type AdConfig struct {
	Workgroup        string
	Realm            string
	IdmapBackend     string
	IdmapRangeStart  int
	IdmapRangeEnd    int
	UseRFC2307       bool
	TemplateShell    string
	TemplateHomedir  string
	OfflineLogon     bool
	PasswordServer   string // empty means omit
	MinProtocol      string
	MaxProtocol      string
}

// DefaultAdConfig mirrors AdSmbConfig::default().
func DefaultAdConfig() AdConfig {
	return AdConfig{
		Workgroup:       "WORKGROUP",
		Realm:           "EXAMPLE.COM",
		IdmapBackend:    "rid",
		IdmapRangeStart: 10000,
		IdmapRangeEnd:   999999,
		TemplateShell:   "/bin/bash",
		TemplateHomedir: "/home/%U",
		OfflineLogon:    true,
		MinProtocol:     "SMB2",
		MaxProtocol:     "SMB3",
	}
}

// Connection is one active SMB session/tree-connect.
type Connection struct {
	PID         int
	Username    string
	Share       string
	Machine     string
	Protocol    string
	ConnectedAt int64
}

// Lock is one open file/byte-range lock.
type Lock struct {
	PID      int
	Username string
	Share    string
	Path     string
	LockType string
}

// ServiceStatus reports the liveness of the Samba daemons.
type ServiceStatus struct {
	SmbdRunning       bool
	NmbdRunning       bool
	WinbinddRunning   bool
	Version           string
	ActiveConnections int
	OpenFiles         int
}

// User is one passdb entry, as reported by pdbedit.
type User struct {
	Username        string
	UID             int
	FullName        string
	Flags           []string
	PasswordLastSet string
}
