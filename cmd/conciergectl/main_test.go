package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleKB = `# sample
Community: Oakwood
Amenities: Pool, Sauna
Schedule: Pool | Mon 9-10, Mon 10-11

swim = pool, swimming
`

func writeKB(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write kb: %v", err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "conciergectl ") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, sub := range []string{"kb", "chat", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got: %s", sub, out)
		}
	}
}

func TestKBCheck(t *testing.T) {
	out, err := run(t, "", "kb", "check", writeKB(t, sampleKB))
	if err != nil {
		t.Fatalf("kb check failed: %v", err)
	}
	for _, want := range []string{
		"1 communities, 1 synonym groups",
		"Pool: Mon 9-10, Mon 10-11",
		"Sauna: no slots",
		`amenity "Sauna" has no slots`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestKBCheck_Malformed(t *testing.T) {
	_, err := run(t, "", "kb", "check", writeKB(t, "Amenities: Pool\n"))
	if err == nil {
		t.Fatal("expected error for amenities before community")
	}
}

func TestKBCheck_RequiresFile(t *testing.T) {
	if _, err := run(t, "", "kb", "check"); err == nil {
		t.Fatal("expected error without file argument")
	}
}

func TestChatCmd_BooksOverStdin(t *testing.T) {
	input := strings.Join([]string{"Oakwood", "swimming", "mon 9-10", "Mon 9-10", "a@b.com", "/quit"}, "\n") + "\n"
	out, err := run(t, input, "chat", "--kb", writeKB(t, sampleKB), "--db", "sqlite://:memory:")
	if err != nil {
		t.Fatalf("chat failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"Welcome to Amenity Booking",
		"Available time slots for Pool in Oakwood:",
		"  - Mon 10-11",
		"Invalid slot. Please select one of these for Pool:",
		"Booking confirmed for Pool in Oakwood at Mon 9-10",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestChatCmd_ReadsKBPathFromEnvFile(t *testing.T) {
	kbPath := writeKB(t, sampleKB)
	envPath := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(envPath, []byte("KB_PATH="+kbPath+"\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CONCIERGE_ENV", envPath)
	// Registers the restore; the variable must be absent for the file to apply.
	t.Setenv("KB_PATH", "")
	os.Unsetenv("KB_PATH")

	out, err := run(t, "/quit\n", "chat", "--db", "sqlite://:memory:")
	if err != nil {
		t.Fatalf("chat failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Welcome to Amenity Booking") {
		t.Errorf("expected greeting, got:\n%s", out)
	}
}
