package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/creditline/internal/config"
	"github.com/nao1215/creditline/internal/model"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	flag := cmd.Flags().Lookup("output")
	if flag == nil || flag.Shorthand != "o" || flag.DefValue != config.DefaultConfigFile {
		t.Errorf("unexpected output flag %+v", flag)
	}
	flag = cmd.Flags().Lookup("force")
	if flag == nil || flag.Shorthand != "f" || flag.DefValue != "false" {
		t.Errorf("unexpected force flag %+v", flag)
	}
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".creditline")
		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cf, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("template does not load: %v", err)
		}
		if cf.Display.Position == nil || *cf.Display.Position != model.PositionBottomRight {
			t.Errorf("expected default position, got %v", cf.Display.Position)
		}

		cfg := config.NewConfig()
		cf.Apply(cfg)
		if cfg.DisplayConfig() != model.DefaultDisplayConfig() {
			t.Errorf("expected template to match defaults, got %+v", cfg.DisplayConfig())
		}
	})

	t.Run("fails if file exists without force", func(t *testing.T) {
		t.Parallel()

		outputPath := writeFile(t, t.TempDir(), ".creditline", "existing")
		cmd := NewInitCmd()
		cmd.SetArgs([]string{"-o", outputPath})

		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("overwrites file with force flag", func(t *testing.T) {
		t.Parallel()

		outputPath := writeFile(t, t.TempDir(), ".creditline", "existing")
		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath, "-f"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "display:") {
			t.Error("expected template content")
		}
	})
}
