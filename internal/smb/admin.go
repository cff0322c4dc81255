package smb

import (
	"context"
	"os"
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

const defaultConfigPath = "/etc/samba/smb.conf"

// commandRunner matches run's signature; Admin calls external commands
// through this indirection so tests can substitute a fake instead of
// shelling out to real testparm/smbstatus/smbpasswd/pdbedit binaries.
type commandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

// Admin wraps the external command surface (testparm, smbcontrol,
// smbstatus, smbpasswd, pdbedit, and the config file itself) used to apply
// and introspect a running Samba install. It holds no share state of its
// own — that lives in whatever store calls WriteFullConfig.
type Admin struct {
	ConfigPath string
	Generator  *Generator
	runner     commandRunner
}

// NewAdmin returns an Admin managing the given config path. An empty path
// defaults to /etc/samba/smb.conf.
func NewAdmin(configPath string) *Admin {
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return &Admin{ConfigPath: configPath, Generator: NewGenerator(), runner: run}
}

func (a *Admin) readConfig() (string, error) {
	data, err := os.ReadFile(a.ConfigPath)
	if err != nil {
		return "", horcruxerr.InternalErr("read %s: %v", a.ConfigPath, err)
	}
	return string(data), nil
}

func (a *Admin) writeConfig(config string) error {
	if err := os.WriteFile(a.ConfigPath, []byte(config), 0o644); err != nil {
		return horcruxerr.InternalErr("write %s: %v", a.ConfigPath, err)
	}
	return nil
}

// WriteFullConfig renders global/shares into smb.conf, backs up whatever
// was there before, tests the new config's syntax, and only reloads smbd
// if the test passes — restoring the backup and returning a Validation
// error otherwise, so a bad edit never reaches the running daemon.
func (a *Admin) WriteFullConfig(ctx context.Context, global GlobalConfig, shares []Share) error {
	config := a.Generator.Generate(global, shares)
	return a.applyConfig(ctx, config)
}

// WriteFullConfigAD is WriteFullConfig for an AD-joined server.
func (a *Admin) WriteFullConfigAD(ctx context.Context, ad AdConfig, shares []Share) error {
	config := a.Generator.GenerateWithAD(ad, shares)
	return a.applyConfig(ctx, config)
}

func (a *Admin) applyConfig(ctx context.Context, config string) error {
	backupPath := a.ConfigPath + ".bak"
	hadExisting := false
	if existing, err := os.ReadFile(a.ConfigPath); err == nil {
		hadExisting = true
		_ = os.WriteFile(backupPath, existing, 0o644)
	}

	if err := a.writeConfig(config); err != nil {
		return err
	}

	ok, err := a.TestConfig(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if hadExisting {
			if backup, rerr := os.ReadFile(backupPath); rerr == nil {
				_ = a.writeConfig(string(backup))
			}
		}
		return horcruxerr.ValidationErr("generated smb.conf failed testparm validation")
	}

	return a.Reload(ctx)
}

// ListShares returns every share section name in the current config,
// excluding the special [global], [printers], and [print$] sections.
func (a *Admin) ListShares() ([]string, error) {
	config, err := a.readConfig()
	if err != nil {
		return nil, err
	}

	var shares []string
	for _, line := range strings.Split(config, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			name := trimmed[1 : len(trimmed)-1]
			if name != "global" && name != "printers" && name != "print$" {
				shares = append(shares, name)
			}
		}
	}
	return shares, nil
}

// GetShareConfig returns the key/value parameters of one share section.
func (a *Admin) GetShareConfig(shareName string) (map[string]string, error) {
	config, err := a.readConfig()
	if err != nil {
		return nil, err
	}

	sectionHeader := "[" + strings.ToLower(shareName) + "]"
	params := make(map[string]string)
	inSection := false
	found := false

	for _, line := range strings.Split(config, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.EqualFold(trimmed, sectionHeader) {
			inSection = true
			found = true
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if inSection {
				break
			}
			continue
		}
		if inSection {
			if key, value, ok := strings.Cut(trimmed, "="); ok {
				params[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
		}
	}

	if !found {
		return nil, horcruxerr.NotFoundErr("share %q not found", shareName)
	}
	return params, nil
}

// UpdateShareParam sets a single parameter within one share section,
// appending it to the section if it isn't already present, then reloads
// smbd with the edited config.
func (a *Admin) UpdateShareParam(ctx context.Context, shareName, key, value string) error {
	config, err := a.readConfig()
	if err != nil {
		return err
	}

	sectionHeader := "[" + strings.ToLower(shareName) + "]"
	var out strings.Builder
	inSection := false
	updated := false

	lines := strings.Split(config, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.EqualFold(trimmed, sectionHeader) {
			inSection = true
			out.WriteString(line)
			out.WriteString("\n")
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if inSection && !updated {
				out.WriteString("   " + key + " = " + value + "\n")
				updated = true
			}
			inSection = false
		}

		if inSection && strings.HasPrefix(trimmed, key) && strings.Contains(trimmed, "=") {
			out.WriteString("   " + key + " = " + value + "\n")
			updated = true
			continue
		}

		out.WriteString(line)
		if i < len(lines)-1 {
			out.WriteString("\n")
		}
	}

	if inSection && !updated {
		out.WriteString("   " + key + " = " + value + "\n")
	}

	if err := a.writeConfig(out.String()); err != nil {
		return err
	}
	return a.Reload(ctx)
}

// RemoveShareSection deletes a share's section entirely from the config.
func (a *Admin) RemoveShareSection(shareName string) error {
	config, err := a.readConfig()
	if err != nil {
		return err
	}

	sectionHeader := "[" + strings.ToLower(shareName) + "]"
	var out strings.Builder
	inSection := false

	for _, line := range strings.Split(config, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.EqualFold(trimmed, sectionHeader) {
			inSection = true
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			inSection = false
		}
		if inSection {
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}

	return a.writeConfig(out.String())
}
