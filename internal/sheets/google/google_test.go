package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"saldo/internal/core"
	"saldo/internal/projection"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "  "})
	if err == nil || !strings.Contains(err.Error(), "spreadsheet id") {
		t.Fatalf("New without id = %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sa.json")
		if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
			t.Fatal(err)
		}
		data, err := loadCredentials(ctx, path)
		if err != nil || string(data) != `{"type":"service_account"}` {
			t.Fatalf("loadCredentials = %q, %v", data, err)
		}
	})

	t.Run("inline env", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"inline":true}`)
		data, err := loadCredentials(ctx, "")
		if err != nil || string(data) != `{"inline":true}` {
			t.Fatalf("loadCredentials = %q, %v", data, err)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
		if _, err := loadCredentials(ctx, ""); err == nil {
			t.Fatal("expected an error without credentials")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadCredentials(ctx, filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})
}

func TestExportWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "id", sheetName: "Movimientos"}
	err := c.ExportLedger(context.Background(), projection.Project(nil, core.Money{}))
	if err == nil {
		t.Fatal("expected an error when the service is not initialized")
	}
}
