package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/f4ah6o/passmatch-go/internal/vault"
)

func TestNewValidator(t *testing.T) {
	v := New()
	if v == nil {
		t.Error("New() should return non-nil validator")
	}
}

func openDatabase(t *testing.T, content string) *vault.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	db, err := vault.Open(path, true)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return db
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantOK      bool
		wantError   string
		wantWarning string
	}{
		{
			name: "clean database",
			content: `entries:
  - {uuid: a, title: Mail, username: me, url: "https://mail.example.com"}
  - {uuid: b, title: App, username: me, url: "androidapp://com.example.app"}
`,
			wantOK: true,
		},
		{
			name: "duplicate uuid",
			content: `entries:
  - {uuid: a, title: One, username: me}
  - {uuid: a, title: Two, username: me}
`,
			wantError: "reuses the UUID of entry 1",
		},
		{
			name: "nothing to match on",
			content: `entries:
  - {uuid: a, username: me}
`,
			wantError: "has neither title nor URL",
		},
		{
			name: "public suffix host",
			content: `entries:
  - {uuid: a, title: UK, username: me, url: "https://co.uk"}
`,
			wantOK:      true,
			wantWarning: "public suffix",
		},
		{
			name: "recycle bin is only checked for uuids",
			content: `entries:
  - {uuid: a, group: Recycle Bin}
`,
			wantOK: true,
		},
		{
			name: "missing username",
			content: `entries:
  - {uuid: a, title: Notes only}
`,
			wantOK:      true,
			wantWarning: "has no username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := New().Validate(openDatabase(t, tt.content))
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if tt.wantError == "" && report.OK() != tt.wantOK {
				t.Errorf("Validate() OK = %v, want %v (errors: %v)", report.OK(), tt.wantOK, report.Errors)
			}
			if tt.wantError != "" && !containsMessage(report.Errors, tt.wantError) {
				t.Errorf("Validate() errors = %v, want one containing %q", report.Errors, tt.wantError)
			}
			if tt.wantWarning != "" && !containsMessage(report.Warnings, tt.wantWarning) {
				t.Errorf("Validate() warnings = %v, want one containing %q", report.Warnings, tt.wantWarning)
			}
		})
	}
}

func TestValidate_Locked(t *testing.T) {
	db := openDatabase(t, "entries: []\n")
	db.Lock()
	if _, err := New().Validate(db); err == nil {
		t.Error("Validate() should fail on a locked database")
	}
}

func containsMessage(messages []string, want string) bool {
	for _, m := range messages {
		if strings.Contains(m, want) {
			return true
		}
	}
	return false
}
