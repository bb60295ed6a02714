package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firewall-rule-engine/internal/report"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "ERROR"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeRules(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd == nil {
		t.Fatal("newRootCmd returned nil")
	}
	if cmd.Use != "fwrules" {
		t.Errorf("Expected use 'fwrules', got '%s'", cmd.Use)
	}
	for _, name := range []string{"validate", "highlight", "parse", "serve"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestValidateValidFile(t *testing.T) {
	path := writeRules(t, t.TempDir(), "office.rules", "# office\nALLOW any OUT tcp port:80,443\nDENY cidr:10.0.0.0/8 IN any\n")

	out, err := execute(t, "", "validate", path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "Valid! 2 rules parsed successfully.") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestValidateInvalidFileReturnsSentinel(t *testing.T) {
	path := writeRules(t, t.TempDir(), "bad.rules", "ALLOW any OUT tcp\nPERMIT any OUT tcp\n")

	out, err := execute(t, "", "validate", "-o", "json", path)
	if !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("Expected ErrInvalidRules, got %v", err)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if doc.Summary.Invalid != 1 || len(doc.Documents) != 1 {
		t.Fatalf("Unexpected summary %+v", doc.Summary)
	}
	errs := doc.Documents[0].Result.Errors
	if len(errs) != 1 || errs[0].Line != 2 || errs[0].Message != `Invalid action "PERMIT". Must be ALLOW or DENY.` {
		t.Errorf("Unexpected errors %+v", errs)
	}
}

func TestValidateStdin(t *testing.T) {
	out, err := execute(t, "DENY any OUT icmp\n", "validate", "-o", "csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(out, "document,source,valid,rule_count,line,message\n") {
		t.Errorf("Expected CSV header, got:\n%s", out)
	}
	if !strings.Contains(out, "stdin,stdin,true,1") {
		t.Errorf("Expected stdin row, got:\n%s", out)
	}
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir, "a.rules", "ALLOW any OUT tcp\n")
	writeRules(t, dir, "b.fw", "DENY any IN udp port:53\n")
	writeRules(t, dir, "notes.txt", "not a rule\n")

	out, err := execute(t, "", "validate", "--workers", "2", dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "2 document(s): 2 valid, 0 invalid") {
		t.Errorf("Expected two documents, got:\n%s", out)
	}
}

func createProfilesDB(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "console.db")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()
	for _, stmt := range []string{
		"CREATE TABLE cfg_network_profile (profile_id INTEGER PRIMARY KEY, profile_name TEXT NOT NULL, rules TEXT)",
		"INSERT INTO cfg_network_profile VALUES (1, 'lab', 'ALLOW any OUT tcp')",
		"INSERT INTO cfg_network_profile VALUES (2, 'guest', 'DENY any OUT')",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}
	return dsn
}

func TestValidateSQLiteProfiles(t *testing.T) {
	dsn := createProfilesDB(t)

	out, err := execute(t, "", "validate", "--provider", "sqlite", "--db", dsn, "--profile", "lab")
	if err != nil {
		t.Fatalf("Expected no error for the lab profile, got %v\n%s", err, out)
	}

	_, err = execute(t, "", "validate", "--provider", "sqlite", "--db", dsn)
	if !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("Expected ErrInvalidRules with the guest profile included, got %v", err)
	}
}

func TestDBFlagCompletesProviderFromConfigFile(t *testing.T) {
	dsn := createProfilesDB(t)
	cfgPath := writeRules(t, t.TempDir(), "fwrules.yaml", "source:\n  provider: sqlite\n  profile: lab\n")

	out, err := execute(t, "", "--config", cfgPath, "validate", "--db", dsn)
	if err != nil {
		t.Fatalf("Expected --db to complete the configured sqlite provider, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "lab: Valid! 1 rules parsed successfully.") {
		t.Errorf("Expected the lab profile report, got:\n%s", out)
	}
}

func TestDBFlagCompletesProviderFromEnv(t *testing.T) {
	dsn := createProfilesDB(t)
	t.Setenv("FWRULES_SOURCE_PROVIDER", "sqlite")

	out, err := execute(t, "", "validate", "--db", dsn, "--profile", "lab")
	if err != nil {
		t.Fatalf("Expected --db to complete the sqlite provider from the environment, got %v\n%s", err, out)
	}

	t.Setenv("FWRULES_SOURCE_DSN", dsn)
	if _, err := execute(t, "", "validate", "--profile", "lab"); err != nil {
		t.Fatalf("Expected FWRULES_SOURCE_DSN to complete the provider, got %v", err)
	}
}

func TestCommandsWithoutDocumentsIgnoreMissingDSN(t *testing.T) {
	t.Setenv("FWRULES_SOURCE_PROVIDER", "mariadb")

	if _, err := execute(t, "DENY any IN udp\n", "highlight"); err != nil {
		t.Errorf("highlight should not need a DSN, got %v", err)
	}
	if _, err := execute(t, "DENY any IN udp\n", "parse"); err != nil {
		t.Errorf("parse should not need a DSN, got %v", err)
	}
	if _, err := execute(t, "", "validate"); err == nil || !strings.Contains(err.Error(), "source.dsn") {
		t.Errorf("Expected validate to report the missing DSN, got %v", err)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	if _, err := execute(t, "", "validate", "--provider", "mariadb"); err == nil {
		t.Error("Expected an error for mariadb without --db")
	}
	if _, err := execute(t, "", "validate", "-o", "xml", "-"); err == nil {
		t.Error("Expected an error for an unknown output format")
	}
	if _, err := execute(t, "", "validate", "--watch", "-"); err == nil {
		t.Error("Expected an error when watching stdin")
	}
}

func TestHighlightCommand(t *testing.T) {
	out, err := execute(t, "ALLOW ip:1.2.3.4 OUT tcp # web\n", "highlight")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := `<span class="syntax-action">ALLOW</span> <span class="syntax-address">ip:1.2.3.4</span> ` +
		`<span class="syntax-direction">OUT</span> <span class="syntax-protocol">tcp</span> ` +
		`<span class="syntax-comment"># web</span>` + "\n\n"
	if out != want {
		t.Errorf("Unexpected markup:\n got %q\nwant %q", out, want)
	}
}

func TestParseCommand(t *testing.T) {
	path := writeRules(t, t.TempDir(), "dns.rules", "ALLOW cidr:192.168.1.0/24 OUT udp port:53\n")

	out, err := execute(t, "", "parse", path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var parsed struct {
		Name  string `json:"name"`
		Rules []struct {
			Protocol  string `json:"protocol"`
			Addresses []struct {
				Kind      string `json:"kind"`
				PrefixLen int    `json:"prefixLength"`
			} `json:"addresses"`
			Ports []struct {
				Start   int    `json:"start"`
				Service string `json:"service"`
			} `json:"ports"`
		} `json:"rules"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if parsed.Name != path || len(parsed.Rules) != 1 {
		t.Fatalf("Unexpected parse output %+v", parsed)
	}
	rule := parsed.Rules[0]
	if rule.Protocol != "UDP" || rule.Addresses[0].Kind != "cidr" || rule.Addresses[0].PrefixLen != 24 {
		t.Errorf("Unexpected rule %+v", rule)
	}
	if rule.Ports[0].Start != 53 || rule.Ports[0].Service != "domain" {
		t.Errorf("Unexpected ports %+v", rule.Ports)
	}

	if _, err := execute(t, "ALLOW nowhere OUT tcp\n", "parse", "-o", "yaml"); !errors.Is(err, ErrInvalidRules) {
		t.Errorf("Expected ErrInvalidRules for an invalid document, got %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	levels := []string{"DEBUG", "INFO", "WARN", "ERROR", "UNKNOWN"}
	for _, lvl := range levels {
		for _, format := range []string{"json", "text"} {
			if l := setupLogger(lvl, "", format); l == nil {
				t.Errorf("setupLogger returned nil for level %s format %s", lvl, format)
			}
		}
	}

	logFile := filepath.Join(t.TempDir(), "test.log")
	l1 := setupLogger("INFO", logFile, "json")
	if l1 == nil {
		t.Fatal("setupLogger with file returned nil")
	}
	l1.Info("hello")
	data, err := os.ReadFile(logFile)
	if err != nil || !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("Expected JSON log line in file, got %q (%v)", data, err)
	}

	l2 := setupLogger("INFO", "/nonexistent/path/to/log.log", "text")
	if l2 == nil {
		t.Error("setupLogger should return a logger even if file fails")
	}
}
