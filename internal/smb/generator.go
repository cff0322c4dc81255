package smb

import (
	"fmt"
	"sort"
	"strings"
)

// Generator renders smb.conf text from a GlobalConfig (or AdConfig) and a
// set of shares.
//
// Two details depart deliberately from the most direct reading of the
// source model this was ported from: that code emitted a competing `valid
// users` line for ValidGroups on top of the one for ValidUsers, and a
// separate `vfs objects` line each for VFSObjects, RecycleBin and
// AuditLogging — in real smbd, later lines for the same parameter silently
// win, so only the last one ever took effect. Generator merges each of
// those into a single line instead.
type Generator struct{}

// NewGenerator returns a Generator.
func NewGenerator() *Generator { return &Generator{} }

// Generate renders a complete smb.conf for a standalone (non-AD) server.
func (g *Generator) Generate(global GlobalConfig, shares []Share) string {
	var b strings.Builder
	g.writeGlobalSection(&b, global)
	g.writeShares(&b, shares)
	return b.String()
}

// GenerateWithAD renders a complete smb.conf for an AD-joined server.
func (g *Generator) GenerateWithAD(ad AdConfig, shares []Share) string {
	var b strings.Builder
	g.writeAdGlobalSection(&b, ad)
	g.writeShares(&b, shares)
	return b.String()
}

func (g *Generator) writeGlobalSection(b *strings.Builder, c GlobalConfig) {
	b.WriteString("[global]\n")
	writeParam(b, "workgroup", c.Workgroup)
	writeParam(b, "server string", c.ServerString)
	if c.NetbiosName != "" {
		writeParam(b, "netbios name", c.NetbiosName)
	}
	writeParam(b, "security", c.Security)
	writeParam(b, "map to guest", c.MapToGuest)
	writeParam(b, "log level", fmt.Sprintf("%d", c.LogLevel))
	writeParam(b, "server min protocol", c.MinProtocol)
	writeParam(b, "server max protocol", c.MaxProtocol)
	writeBoolParam(b, "local master", c.LocalMaster)
	writeBoolParam(b, "domain master", c.DomainMaster)
	writeBoolParam(b, "wins support", c.WinsSupport)
	writePrinterDisableBlock(b)
	if c.FruitEnabled {
		writeParam(b, "vfs objects", "fruit streams_xattr")
		writeParam(b, "fruit:metadata", "stream")
		writeParam(b, "fruit:model", "MacSamba")
	}
	if c.SpotlightEnabled {
		writeBoolParam(b, "spotlight", true)
	}
	writeExtra(b, c.ExtraParameters)
	b.WriteString("\n")
}

func (g *Generator) writeAdGlobalSection(b *strings.Builder, c AdConfig) {
	b.WriteString("[global]\n")
	writeParam(b, "workgroup", c.Workgroup)
	writeParam(b, "realm", c.Realm)
	writeParam(b, "security", "ads")
	writeParam(b, "idmap config * : backend", c.IdmapBackend)
	writeParam(b, "idmap config * : range", fmt.Sprintf("%d-%d", c.IdmapRangeStart, c.IdmapRangeEnd))
	writeParam(b, "idmap config "+c.Workgroup+" : backend", c.IdmapBackend)
	writeParam(b, "idmap config "+c.Workgroup+" : range", fmt.Sprintf("%d-%d", c.IdmapRangeStart, c.IdmapRangeEnd))
	if c.UseRFC2307 {
		writeParam(b, "idmap config "+c.Workgroup+" : schema_mode", "rfc2307")
	}
	writeParam(b, "template shell", c.TemplateShell)
	writeParam(b, "template homedir", c.TemplateHomedir)
	writeBoolParam(b, "winbind use default domain", true)
	writeBoolParam(b, "winbind expand groups", true)
	if c.OfflineLogon {
		writeBoolParam(b, "winbind offline logon", true)
	}
	writeParam(b, "kerberos method", "secrets and keytab")
	writeParam(b, "dedicated keytab file", "/etc/krb5.keytab")
	if c.PasswordServer != "" {
		writeParam(b, "password server", c.PasswordServer)
	}
	writeParam(b, "server min protocol", c.MinProtocol)
	writeParam(b, "server max protocol", c.MaxProtocol)
	writePrinterDisableBlock(b)
	b.WriteString("\n")
}

// writePrinterDisableBlock emits the fixed printer-disable block shared by
// the standalone and AD-joined global sections.
func writePrinterDisableBlock(b *strings.Builder) {
	writeParam(b, "load printers", "no")
	writeParam(b, "printing", "bsd")
	writeParam(b, "printcap name", "/dev/null")
	writeBoolParam(b, "disable spoolss", true)
}

func (g *Generator) writeShares(b *strings.Builder, shares []Share) {
	sorted := make([]Share, len(shares))
	copy(sorted, shares)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, s := range sorted {
		if !s.Enabled {
			continue
		}
		g.writeShareSection(b, s)
	}
}

func (g *Generator) writeShareSection(b *strings.Builder, s Share) {
	cfg := defaultShareConfig()
	if s.SMBConfig != nil {
		cfg = *s.SMBConfig
	}

	fmt.Fprintf(b, "[%s]\n", s.Name)
	writeParam(b, "path", s.Path)
	if s.Description != "" {
		writeParam(b, "comment", s.Description)
	}
	writeBoolParam(b, "browseable", cfg.Browseable)
	writeBoolParam(b, "read only", cfg.ReadOnly)
	writeBoolParam(b, "guest ok", cfg.GuestOK)
	writeBoolParam(b, "oplocks", cfg.Oplocks)

	switch cfg.CaseSensitive {
	case CaseSensitive:
		writeParam(b, "case sensitive", "yes")
	case CaseInsensitive:
		writeParam(b, "case sensitive", "no")
	case CaseAuto, "":
		writeParam(b, "case sensitive", "auto")
	}

	// REDESIGN: valid users and valid groups each used to emit their own
	// competing "valid users" line; Samba only honors the last one it
	// parses. Merge both lists into a single line instead — group names
	// are prefixed with "@" so smbd resolves them as groups.
	var principals []string
	principals = append(principals, cfg.ValidUsers...)
	for _, group := range cfg.ValidGroups {
		principals = append(principals, "@"+group)
	}
	if len(principals) > 0 {
		writeParam(b, "valid users", strings.Join(principals, " "))
	}

	if len(cfg.HostsAllow) > 0 {
		writeParam(b, "hosts allow", strings.Join(cfg.HostsAllow, " "))
	}
	if len(cfg.HostsDeny) > 0 {
		writeParam(b, "hosts deny", strings.Join(cfg.HostsDeny, " "))
	}

	// REDESIGN: vfs objects, recycle bin and audit logging each used to
	// emit their own competing "vfs objects" line; only the last one took
	// effect. Collect every module each option contributes and emit one
	// line.
	var vfsObjects []string
	vfsObjects = append(vfsObjects, cfg.VFSObjects...)
	if cfg.RecycleBin {
		vfsObjects = appendUnique(vfsObjects, "recycle")
	}
	if cfg.AuditLogging {
		vfsObjects = appendUnique(vfsObjects, "full_audit")
	}
	if len(vfsObjects) > 0 {
		writeParam(b, "vfs objects", strings.Join(vfsObjects, " "))
	}
	if cfg.RecycleBin {
		writeParam(b, "recycle:repository", ".recycle/%U")
		writeParam(b, "recycle:keeptree", "yes")
		writeParam(b, "recycle:versions", "yes")
	}
	if cfg.AuditLogging {
		writeParam(b, "full_audit:prefix", "%u|%I|%m|%S")
		writeParam(b, "full_audit:success", "mkdir rename unlink rmdir write")
		writeParam(b, "full_audit:failure", "none")
	}

	writeExtra(b, cfg.ExtraParameters)
	b.WriteString("\n")
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

func writeParam(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "   %s = %s\n", key, value)
}

func writeBoolParam(b *strings.Builder, key string, value bool) {
	if value {
		fmt.Fprintf(b, "   %s = yes\n", key)
	} else {
		fmt.Fprintf(b, "   %s = no\n", key)
	}
}

func writeExtra(b *strings.Builder, extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeParam(b, k, extra[k])
	}
}
