package devops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestMake_DXTargets verifies developer experience targets exist in the
// Makefile and wrap the expected go and docker compose invocations.
func TestMake_DXTargets(t *testing.T) {
	root := findRepoRoot(t)
	b, err := os.ReadFile(filepath.Join(root, "Makefile"))
	if err != nil {
		t.Fatalf("Makefile missing: %v", err)
	}
	mk := string(b)

	for _, target := range []string{"\nbuild:", "\nrun:", "\ntest:", "\nup:", "\ndown:", "\nlogs:", "\nclean:"} {
		if !strings.Contains(mk, target) {
			t.Fatalf("Makefile should define a %q target", strings.TrimSpace(target))
		}
	}
	if !strings.Contains(mk, "go test ./...") {
		t.Fatalf("test target should run go test ./...")
	}
	if !strings.Contains(mk, "docker compose up -d --build") {
		t.Fatalf("up target should build and start compose services")
	}
	if !strings.Contains(mk, "docker compose logs -f") {
		t.Fatalf("logs target should follow docker compose logs -f")
	}
}
