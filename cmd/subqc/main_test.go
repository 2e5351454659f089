package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
report_dir = %q

[logging]
level = "error"
`, filepath.Join(dir, "data"), filepath.Join(dir, "logs"), filepath.Join(dir, "reports"))

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCommand(args ...string) (string, string, error) {
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const cleanSRT = `1
00:00:01,000 --> 00:00:03,000
Hej där borta, min vän.
`

const warningSRT = `1
00:00:01,000 --> 00:00:01,400
För kort replik, ser du.

2
00:00:05,000 --> 00:00:07,000
Jag vet inte... vi får se.
`

const errorSRT = `1
00:00:01,000 --> 00:00:04,000
En rad.
Två rader.
Tre rader är en för mycket.
`

func TestAnalyzeCommandClean(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "clean.srt", cleanSRT)

	out, _, err := runCommand("analyze", file, "--config", cfg)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "Netflix-SV") {
		t.Fatalf("output missing profile:\n%s", out)
	}
}

func TestAnalyzeCommandJSON(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "episode.srt", warningSRT)

	out, _, err := runCommand("analyze", file, "--config", cfg, "--json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	var rep struct {
		ProfileID  string         `json:"profileId"`
		Mode       string         `json:"mode"`
		RuleCounts map[string]int `json:"ruleCounts"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("unmarshal report: %v\n%s", err, out)
	}
	if rep.ProfileID != "Netflix-SV" || rep.Mode != "none" {
		t.Fatalf("report = %+v", rep)
	}
	if rep.RuleCounts["duration-min"] != 1 || rep.RuleCounts["ellipsis"] != 1 {
		t.Fatalf("rule counts = %v", rep.RuleCounts)
	}
}

func TestAnalyzeCommandGatesOnErrors(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "broken.srt", errorSRT)

	_, _, err := runCommand("analyze", file, "--config", cfg)
	if err == nil {
		t.Fatal("error-severity issues did not fail the command")
	}
	if !strings.Contains(err.Error(), "error-severity") {
		t.Fatalf("err = %v", err)
	}
}

func TestFixCommandWritesOutput(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "episode.srt", warningSRT)
	target := filepath.Join(t.TempDir(), "episode.fixed.srt")

	out, _, err := runCommand("fix", file, "--config", cfg, "--mode", "safe-only", "-o", target)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(out, "Wrote "+target) {
		t.Fatalf("output = %q", out)
	}

	fixed, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read fixed file: %v", err)
	}
	if !strings.Contains(string(fixed), "…") {
		t.Fatalf("ellipsis not fixed:\n%s", fixed)
	}
	if strings.Contains(string(fixed), "00:00:01,400") {
		t.Fatalf("short duration not extended:\n%s", fixed)
	}
}

func TestFixCommandRejectsModeNone(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "episode.srt", warningSRT)

	if _, _, err := runCommand("fix", file, "--config", cfg, "--mode", "none"); err == nil {
		t.Fatal("mode none accepted")
	}
}

func TestFixThenRunsList(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "episode.srt", warningSRT)
	target := filepath.Join(t.TempDir(), "out.srt")

	if _, _, err := runCommand("fix", file, "--config", cfg, "--mode", "safe-only", "-o", target); err != nil {
		t.Fatalf("fix: %v", err)
	}

	out, _, err := runCommand("runs", "list", "--config", cfg)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, "safe-only") || !strings.Contains(out, "episode.srt") {
		t.Fatalf("runs list output:\n%s", out)
	}
}

func TestProfilesCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCommand("profiles", "--config", cfg)
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	for _, id := range []string{"Netflix-SV", "SVT-SE", "NRK-NO", "DR-DK"} {
		if !strings.Contains(out, id) {
			t.Fatalf("profile %s missing:\n%s", id, out)
		}
	}
}

func TestProfilesShowCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCommand("profiles", "show", "SVT-SE", "--config", cfg)
	if err != nil {
		t.Fatalf("profiles show: %v", err)
	}
	var prof struct {
		MaxCPL int `json:"maxCPL"`
	}
	if err := json.Unmarshal([]byte(out), &prof); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if prof.MaxCPL != 37 {
		t.Fatalf("max cpl = %d", prof.MaxCPL)
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCommand("config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output = %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, _, err := runCommand("config", "init", "--path", target); err == nil {
		t.Fatal("existing config overwritten without --overwrite")
	}
}

func TestUnknownProfileFlag(t *testing.T) {
	cfg := writeTestConfig(t)
	file := writeTestFile(t, "clean.srt", cleanSRT)

	if _, _, err := runCommand("analyze", file, "--config", cfg, "--profile", "No-Such"); err == nil {
		t.Fatal("unknown profile accepted")
	}
}
