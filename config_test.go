// Tests for configuration resolution.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

// TestConfigFromEnvDefaults applies the placeholder fallbacks when the
// environment is empty.
func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("MAJEL_SPREADSHEET_ID", "")
	t.Setenv("MAJEL_SHEET_RANGE", "")
	t.Setenv("GEMINI_API_KEY", "")

	config := configFromEnv()
	if config.SpreadsheetID != defaultSpreadsheetID {
		t.Fatalf("SpreadsheetID = %q, want placeholder", config.SpreadsheetID)
	}
	if config.SheetRange != defaultSheetRange {
		t.Fatalf("SheetRange = %q, want default", config.SheetRange)
	}
	if config.GeminiAPIKey != defaultGeminiAPIKey {
		t.Fatalf("GeminiAPIKey = %q, want placeholder", config.GeminiAPIKey)
	}
	if config.Provider != defaultProvider || config.Model != defaultModel {
		t.Fatalf("provider/model defaults wrong: %q %q", config.Provider, config.Model)
	}
}

// TestConfigFromEnvOverrides reads the documented environment variables.
func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("MAJEL_SPREADSHEET_ID", "sheet-123")
	t.Setenv("MAJEL_SHEET_RANGE", "Roster!A1:F99")
	t.Setenv("GEMINI_API_KEY", "key-abc")

	config := configFromEnv()
	if config.SpreadsheetID != "sheet-123" {
		t.Fatalf("SpreadsheetID = %q", config.SpreadsheetID)
	}
	if config.SheetRange != "Roster!A1:F99" {
		t.Fatalf("SheetRange = %q", config.SheetRange)
	}
	if config.GeminiAPIKey != "key-abc" {
		t.Fatalf("GeminiAPIKey = %q", config.GeminiAPIKey)
	}
}

// TestApplyFileConfig overlays only the fields the YAML file sets.
func TestApplyFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "majel.yaml")
	yaml := "spreadsheet-id: from-file\npersona: Zora\nprovider: OpenAI\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	config := configFromEnv()
	config.SpreadsheetID = "from-env"
	if err := applyFileConfig(config, path); err != nil {
		t.Fatalf("applyFileConfig returned error: %v", err)
	}

	if config.SpreadsheetID != "from-file" {
		t.Fatalf("SpreadsheetID = %q, want file value", config.SpreadsheetID)
	}
	if config.Persona != "Zora" {
		t.Fatalf("Persona = %q", config.Persona)
	}
	if config.Provider != "openai" {
		t.Fatalf("Provider = %q, want lowercased file value", config.Provider)
	}
	// Unset fields keep their prior values.
	if config.SheetRange != defaultSheetRange || config.Operator != defaultOperator {
		t.Fatalf("unset fields changed: %q %q", config.SheetRange, config.Operator)
	}
}

// TestApplyFileConfigMissingFile treats an absent config file as a no-op.
func TestApplyFileConfigMissingFile(t *testing.T) {
	config := configFromEnv()
	if err := applyFileConfig(config, filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
}

// TestApplyFileConfigMalformed rejects unparseable YAML.
func TestApplyFileConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "majel.yaml")
	if err := os.WriteFile(path, []byte("spreadsheet-id: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	if err := applyFileConfig(configFromEnv(), path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}
