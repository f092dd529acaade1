package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeNote(t *testing.T, root, label, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(label)+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write note: %v", err)
	}
}

func TestNewScannerRejectsMissingDir(t *testing.T) {
	if _, err := NewScanner(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "file.md")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewScanner(file); err == nil {
		t.Error("expected error for non-directory")
	}
}

func TestScanResolvesAgainstNoteSet(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "index", "see [[projects/alpha]] and [[missing]]")
	writeNote(t, root, "projects/alpha", "back to [[index]], twice: [[index]]")

	s, err := NewScanner(root)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	snap, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if got := snap.Targets("index"); got["projects/alpha"] != 1 || got["missing"] != 1 {
		t.Fatalf("index targets = %v", got)
	}
	if _, ok := snap.Resolved["index"]["projects/alpha"]; !ok {
		t.Error("link to existing note should be resolved")
	}
	if _, ok := snap.Unresolved["index"]["missing"]; !ok {
		t.Error("link to missing note should be unresolved")
	}
	// Repeated links accumulate weight.
	if got := snap.Resolved["projects/alpha"]["index"]; got != 2 {
		t.Errorf("repeated link weight = %v, want 2", got)
	}
}

func TestScanNoteSplitsTargets(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a", "[[b]] [[ghost]]")
	writeNote(t, root, "b", "")

	s, err := NewScanner(root)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	resolved, unresolved, err := s.ScanNote(context.Background(), "a")
	if err != nil {
		t.Fatalf("ScanNote: %v", err)
	}
	if resolved["b"] != 1 {
		t.Errorf("resolved = %v", resolved)
	}
	if unresolved["ghost"] != 1 {
		t.Errorf("unresolved = %v", unresolved)
	}
}

func TestFingerprintTracksContentChanges(t *testing.T) {
	root := t.TempDir()
	writeNote(t, root, "a", "[[b]]")

	s, err := NewScanner(root)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	fp1, err := s.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fp2, err := s.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp1 != fp2 {
		t.Error("fingerprint should be stable for an unchanged vault")
	}

	// Ensure the mtime actually differs on coarse-grained filesystems.
	time.Sleep(10 * time.Millisecond)
	writeNote(t, root, "a", "[[b]] [[c]]")
	fp3, err := s.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp3 == fp1 {
		t.Error("fingerprint should change when a note changes")
	}
}

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]float64
	}{
		{
			name: "plain link",
			text: "see [[note]]",
			want: map[string]float64{"note": 1},
		},
		{
			name: "alias stripped",
			text: "[[real target|shown text]]",
			want: map[string]float64{"real target": 1},
		},
		{
			name: "heading anchor stripped",
			text: "[[note#Section]]",
			want: map[string]float64{"note": 1},
		},
		{
			name: "repeats counted",
			text: "[[a]] [[a]] [[b]]",
			want: map[string]float64{"a": 2, "b": 1},
		},
		{
			name: "empty target skipped",
			text: "[[  ]] and [[x]]",
			want: map[string]float64{"x": 1},
		},
		{
			name: "no links",
			text: "plain text [single brackets]",
			want: map[string]float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractLinks(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("extractLinks(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for target, count := range tt.want {
				if got[target] != count {
					t.Errorf("target %q = %v, want %v", target, got[target], count)
				}
			}
		})
	}
}
