package smb

import (
	"strings"
	"testing"
)

func TestGenerateIsDeterministic(t *testing.T) {
	g := NewGenerator()
	shares := []Share{
		{Name: "media", Path: "/tank/media", Enabled: true},
		{Name: "backups", Path: "/tank/backups", Enabled: true},
	}
	first := g.Generate(DefaultGlobalConfig(), shares)
	second := g.Generate(DefaultGlobalConfig(), shares)
	if first != second {
		t.Fatalf("Generate is not deterministic:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
}

func TestGenerateOrdersSharesByName(t *testing.T) {
	g := NewGenerator()
	shares := []Share{
		{Name: "zeta", Path: "/tank/zeta", Enabled: true},
		{Name: "alpha", Path: "/tank/alpha", Enabled: true},
	}
	out := g.Generate(DefaultGlobalConfig(), shares)
	if strings.Index(out, "[alpha]") > strings.Index(out, "[zeta]") {
		t.Fatalf("expected [alpha] section before [zeta], got:\n%s", out)
	}
}

func TestGenerateSkipsDisabledShares(t *testing.T) {
	g := NewGenerator()
	shares := []Share{
		{Name: "enabled-share", Path: "/tank/a", Enabled: true},
		{Name: "disabled-share", Path: "/tank/b", Enabled: false},
	}
	out := g.Generate(DefaultGlobalConfig(), shares)
	if !strings.Contains(out, "[enabled-share]") {
		t.Error("expected enabled share section present")
	}
	if strings.Contains(out, "[disabled-share]") {
		t.Error("expected disabled share section to be omitted")
	}
}

// TestValidUsersMergedIntoOneLine is the fix for the original model's
// double "valid users" line: ValidUsers and ValidGroups must contribute to
// a single line, not two competing ones.
func TestValidUsersMergedIntoOneLine(t *testing.T) {
	g := NewGenerator()
	cfg := defaultShareConfig()
	cfg.ValidUsers = []string{"alice", "bob"}
	cfg.ValidGroups = []string{"nasadmins"}
	shares := []Share{{Name: "secure", Path: "/tank/secure", Enabled: true, SMBConfig: &cfg}}

	out := g.Generate(DefaultGlobalConfig(), shares)
	if n := strings.Count(out, "valid users ="); n != 1 {
		t.Fatalf("expected exactly one \"valid users =\" line, got %d in:\n%s", n, out)
	}
	line := extractLine(out, "valid users =")
	if !strings.Contains(line, "alice") || !strings.Contains(line, "bob") || !strings.Contains(line, "@nasadmins") {
		t.Fatalf("valid users line missing expected principals: %q", line)
	}
}

// TestVFSObjectsMergedIntoOneLine is the fix for the original model's
// competing "vfs objects" lines: VFSObjects, RecycleBin and AuditLogging
// must all contribute modules to a single line.
func TestVFSObjectsMergedIntoOneLine(t *testing.T) {
	g := NewGenerator()
	cfg := defaultShareConfig()
	cfg.VFSObjects = []string{"shadow_copy2"}
	cfg.RecycleBin = true
	cfg.AuditLogging = true
	shares := []Share{{Name: "audited", Path: "/tank/audited", Enabled: true, SMBConfig: &cfg}}

	out := g.Generate(DefaultGlobalConfig(), shares)
	if n := strings.Count(out, "vfs objects ="); n != 1 {
		t.Fatalf("expected exactly one \"vfs objects =\" line, got %d in:\n%s", n, out)
	}
	line := extractLine(out, "vfs objects =")
	for _, module := range []string{"shadow_copy2", "recycle", "full_audit"} {
		if !strings.Contains(line, module) {
			t.Errorf("vfs objects line missing module %q: %q", module, line)
		}
	}
}

func TestGlobalSectionFruitAddsVFSObjectsLine(t *testing.T) {
	g := NewGenerator()
	global := DefaultGlobalConfig()
	global.FruitEnabled = true
	out := g.Generate(global, nil)
	if !strings.Contains(out, "vfs objects = fruit streams_xattr") {
		t.Fatalf("expected fruit vfs objects line in global section:\n%s", out)
	}
}

func TestGenerateWithADUsesRealmSecurity(t *testing.T) {
	g := NewGenerator()
	out := g.GenerateWithAD(DefaultAdConfig(), nil)
	if !strings.Contains(out, "security = ads") {
		t.Fatalf("expected ads security mode:\n%s", out)
	}
	if !strings.Contains(out, "realm = EXAMPLE.COM") {
		t.Fatalf("expected realm line:\n%s", out)
	}
}

func TestGlobalSectionDisablesPrinting(t *testing.T) {
	g := NewGenerator()
	out := g.Generate(DefaultGlobalConfig(), nil)
	for _, line := range []string{"load printers = no", "printing = bsd", "printcap name = /dev/null", "disable spoolss = yes"} {
		if !strings.Contains(out, line) {
			t.Errorf("expected global section to contain %q:\n%s", line, out)
		}
	}
}

func TestGlobalSectionUsesServerProtocolKeys(t *testing.T) {
	g := NewGenerator()
	out := g.Generate(DefaultGlobalConfig(), nil)
	if !strings.Contains(out, "server min protocol = SMB2") || !strings.Contains(out, "server max protocol = SMB3") {
		t.Fatalf("expected server min/max protocol lines:\n%s", out)
	}
	if strings.Contains(out, "\n   min protocol") || strings.Contains(out, "\n   max protocol") {
		t.Fatalf("unexpected non-Samba \"min protocol\"/\"max protocol\" keys:\n%s", out)
	}
}

func TestADGlobalSectionHasWorkgroupIdmapAndKerberosKeytab(t *testing.T) {
	g := NewGenerator()
	ad := DefaultAdConfig()
	out := g.GenerateWithAD(ad, nil)

	if !strings.Contains(out, "idmap config * : backend = rid") {
		t.Fatalf("expected default idmap block:\n%s", out)
	}
	if !strings.Contains(out, "idmap config WORKGROUP : backend = rid") || !strings.Contains(out, "idmap config WORKGROUP : range = 10000-999999") {
		t.Fatalf("expected workgroup-specific idmap block:\n%s", out)
	}
	if !strings.Contains(out, "kerberos method = secrets and keytab") {
		t.Fatalf("expected kerberos method = secrets and keytab:\n%s", out)
	}
	if !strings.Contains(out, "dedicated keytab file = /etc/krb5.keytab") {
		t.Fatalf("expected dedicated keytab file line:\n%s", out)
	}
	if !strings.Contains(out, "server min protocol = SMB2") || !strings.Contains(out, "server max protocol = SMB3") {
		t.Fatalf("expected server min/max protocol lines in AD section:\n%s", out)
	}
	if !strings.Contains(out, "load printers = no") {
		t.Fatalf("expected printer-disable block in AD section:\n%s", out)
	}
}

func extractLine(text, containing string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, containing) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
