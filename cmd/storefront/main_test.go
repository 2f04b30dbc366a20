package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrEthical07/storefront/password"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const fastPasswordYAML = `password:
  memory: 8192
  time: 1
  parallelism: 1
  salt_length: 16
  key_length: 32
`

func TestHashPasswordProducesVerifiableHash(t *testing.T) {
	path := writeConfig(t, fastPasswordYAML)
	out, err := runCLI(t, "s3cret-passphrase\n", "hash-password", "--config", path)
	if err != nil {
		t.Fatalf("hash-password: %v", err)
	}
	hash := strings.TrimSpace(out)

	h, err := password.NewHasher(password.Params{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	ok, err := h.Verify("s3cret-passphrase", hash)
	if err != nil || !ok {
		t.Fatalf("Verify(%q) = %v, %v", hash, ok, err)
	}
}

func TestHashPasswordRejectsEmptyInput(t *testing.T) {
	path := writeConfig(t, fastPasswordYAML)
	if _, err := runCLI(t, "", "hash-password", "--config", path); err == nil {
		t.Fatal("expected error for empty stdin")
	}
}

func TestCheckConfig(t *testing.T) {
	path := writeConfig(t, fastPasswordYAML)

	out, err := runCLI(t, "", "check-config", "--config", path)
	if err != nil {
		t.Fatalf("check-config: %v", err)
	}
	if !strings.Contains(out, "warning commerce_not_configured") {
		t.Fatalf("expected lint output, got %q", out)
	}

	if _, err := runCLI(t, "", "check-config", "--strict", "--config", path); err == nil {
		t.Fatal("expected --strict to fail with warnings")
	}

	bad := writeConfig(t, "session:\n  token_ttl: 0s\n")
	if _, err := runCLI(t, "", "check-config", "--config", bad); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}

func TestLoadtestSmallRun(t *testing.T) {
	out, err := runCLI(t, "", "loadtest", "--sessions", "20", "--concurrency", "4", "--ops", "200", "--pages", "3")
	if err != nil {
		t.Fatalf("loadtest: %v", err)
	}
	for _, want := range []string{"me: ops=200 failures=0", "products: ops=200 failures=0", "upstream catalog calls:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}
