package home

import (
	"path/filepath"
	"testing"
)

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	h, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if h.Path() != dir {
		t.Errorf("expected path %s, got %s", dir, h.Path())
	}
	if h.PDFDir() != filepath.Join(dir, "pdfs") {
		t.Errorf("unexpected pdf dir: %s", h.PDFDir())
	}
	if h.ConfigPath() != filepath.Join(dir, "config.yaml") {
		t.Errorf("unexpected config path: %s", h.ConfigPath())
	}
}

func TestNewDefaultPath(t *testing.T) {
	h, err := New("")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if filepath.Base(h.Path()) != DefaultDirName {
		t.Errorf("expected default dir name %s, got %s", DefaultDirName, filepath.Base(h.Path()))
	}
}

func TestEnsureExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fichemax-home")
	h, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if h.Exists() {
		t.Error("home should not exist before EnsureExists")
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !h.Exists() {
		t.Error("home should exist after EnsureExists")
	}
	if h.ConfigExists() {
		t.Error("config file should not exist yet")
	}
}

func TestPDFPath(t *testing.T) {
	h, err := New("/srv/fichemax")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	want := filepath.Join("/srv/fichemax", "pdfs", "fiche_transistors.pdf")
	if got := h.PDFPath("fiche_transistors.pdf"); got != want {
		t.Errorf("PDFPath = %s, want %s", got, want)
	}
}
