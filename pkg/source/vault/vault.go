// Package vault scans a directory of markdown notes and builds the link
// snapshot the view synchronizes against. A note's label is its path
// relative to the vault root without the .md extension; a [[wikilink]]
// resolves when a note with the linked label exists.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/matzehuels/vaultgraph/pkg/cache"
	"github.com/matzehuels/vaultgraph/pkg/source"
)

// wikilinkRe matches [[target]] and [[target|alias]] links.
// The target is group 1; aliases and heading anchors are stripped.
var wikilinkRe = regexp.MustCompile(`\[\[([^\]|#]+)(?:#[^\]|]*)?(?:\|[^\]]*)?\]\]`)

// Scanner reads a vault directory and produces snapshots.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at dir.
// Returns an error if dir does not exist or is not a directory.
func NewScanner(dir string) (*Scanner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", dir)
	}
	return &Scanner{root: dir}, nil
}

// Root returns the vault root directory.
func (s *Scanner) Root() string { return s.root }

// Scan walks the vault and builds a snapshot of all wikilinks.
// Links to existing notes land in Resolved, the rest in Unresolved.
// Weight counts link occurrences within the source note.
func (s *Scanner) Scan(ctx context.Context) (source.Snapshot, error) {
	notes, err := s.noteLabels()
	if err != nil {
		return source.Snapshot{}, err
	}

	snap := source.NewSnapshot()
	for label := range notes {
		if err := ctx.Err(); err != nil {
			return source.Snapshot{}, err
		}
		data, err := os.ReadFile(s.notePath(label))
		if err != nil {
			return source.Snapshot{}, fmt.Errorf("read note %s: %w", label, err)
		}
		for target, count := range extractLinks(string(data)) {
			if _, exists := notes[target]; exists {
				snap.AddResolved(label, target, count)
			} else {
				snap.AddUnresolved(label, target, count)
			}
		}
	}
	return snap, nil
}

// ScanNote re-reads a single note and returns its outgoing links split into
// resolved and unresolved target sets. Used to answer single-note change
// notifications without walking the whole vault.
func (s *Scanner) ScanNote(ctx context.Context, label string) (resolved, unresolved map[string]float64, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	notes, err := s.noteLabels()
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(s.notePath(label))
	if err != nil {
		return nil, nil, fmt.Errorf("read note %s: %w", label, err)
	}

	resolved = make(map[string]float64)
	unresolved = make(map[string]float64)
	for target, count := range extractLinks(string(data)) {
		if _, exists := notes[target]; exists {
			resolved[target] = count
		} else {
			unresolved[target] = count
		}
	}
	return resolved, unresolved, nil
}

// Fingerprint returns a content hash over note paths, sizes, and mtimes.
// Cheap enough to run per scan; used as the snapshot cache key so unchanged
// vaults hit the cache instead of re-reading every note.
func (s *Scanner) Fingerprint() (string, error) {
	var lines []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		lines = append(lines, fmt.Sprintf("%s:%d:%d", rel, info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint vault: %w", err)
	}
	sort.Strings(lines)
	return cache.Hash([]byte(strings.Join(lines, "\n"))), nil
}

// noteLabels returns the set of note labels present in the vault, mapped to
// an empty struct for membership tests.
func (s *Scanner) noteLabels() (map[string]struct{}, error) {
	notes := make(map[string]struct{})
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		notes[strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	return notes, nil
}

func (s *Scanner) notePath(label string) string {
	return filepath.Join(s.root, filepath.FromSlash(label)+".md")
}

// extractLinks returns wikilink targets and their occurrence counts.
func extractLinks(text string) map[string]float64 {
	out := make(map[string]float64)
	for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		out[target]++
	}
	return out
}
