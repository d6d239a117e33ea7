// Package notes keeps translated snippets as titled notes, one UTF-8 text
// file per note in a single folder.
package notes

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Ext is the extension of every note file.
const Ext = ".txt"

var (
	ErrDuplicateTitle = errors.New("a note with this title already exists")
	ErrNotFound       = errors.New("note not found")
	ErrInvalidTitle   = errors.New("invalid note title")
)

type Note struct {
	Title   string
	Content string
}

// Store is the in-memory view of the notes folder. After every Save or
// Delete the map and the file set agree.
type Store struct {
	dir string

	mu    sync.RWMutex
	notes map[string]string
	order []string
}

// Open creates dir if needed and loads every note in it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create notes folder %s: %w", dir, err)
	}
	s := &Store{dir: dir, notes: make(map[string]string)}
	if err := s.LoadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Dir() string { return s.dir }

// LoadAll replaces the in-memory notes with the .txt files found in the
// folder. Titles are the file base names, NFC-normalized and otherwise
// verbatim. Titles already in memory keep their position; new ones are
// appended in sorted order.
func (s *Store) LoadAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := doublestar.Glob(os.DirFS(s.dir), "*"+Ext)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", s.dir, err)
	}

	loaded := make(map[string]string, len(matches))
	var added []string
	for _, name := range matches {
		path := filepath.Join(s.dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read note %s: %w", name, err)
		}
		// macOS hands back decomposed file names.
		title := titleKey(strings.TrimSuffix(name, Ext))
		if _, dup := loaded[title]; dup {
			log.Printf("Notes: skipping %s, title %q already loaded", name, title)
			continue
		}
		loaded[title] = string(data)
		if _, known := s.notes[title]; !known {
			added = append(added, title)
		}
	}
	sort.Strings(added)

	order := make([]string, 0, len(loaded))
	for _, title := range s.order {
		if _, ok := loaded[title]; ok {
			order = append(order, title)
		}
	}
	order = append(order, added...)

	s.notes = loaded
	s.order = order

	log.Printf("Notes: loaded %d notes from %s", len(order), s.dir)
	return nil
}

// Save stores a new note. Existing titles are never overwritten.
func (s *Store) Save(title, content string) error {
	title, err := NormalizeTitle(title)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Memo.txt and memo.txt are one file on Windows and macOS.
	folded := foldTitle(title)
	for existing := range s.notes {
		if foldTitle(existing) == folded {
			return fmt.Errorf("%w: %q", ErrDuplicateTitle, existing)
		}
	}
	if err := writeFileAtomic(s.path(title), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write note %q: %w", title, err)
	}
	s.notes[title] = content
	s.order = append(s.order, title)
	return nil
}

// Delete removes a note from memory and disk. An empty title means nothing
// was selected. A backing file that is already gone is not an error.
func (s *Store) Delete(title string) error {
	if title == "" {
		return fmt.Errorf("%w: no note selected", ErrNotFound)
	}
	title = titleKey(title)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[title]; !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	if err := os.Remove(s.path(title)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove note %q: %w", title, err)
	}
	delete(s.notes, title)
	for i, t := range s.order {
		if t == title {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Get(title string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.notes[titleKey(title)]
	return content, ok
}

// Titles returns the note titles: loaded notes sorted, then saved notes in
// the order they were added.
func (s *Store) Titles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *Store) path(title string) string {
	return filepath.Join(s.dir, title+Ext)
}

// titleKey is the map key for a title as listed: NFC, nothing trimmed.
func titleKey(title string) string { return norm.NFC.String(title) }

func foldTitle(title string) string { return cases.Fold().String(title) }

// Device names Windows reserves regardless of extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

func isReservedName(title string) bool {
	base, _, _ := strings.Cut(title, ".")
	return reservedNames[strings.ToUpper(strings.TrimSpace(base))]
}

// NormalizeTitle trims and NFC-normalizes title and rejects anything that
// cannot be used as a file name on the supported platforms.
func NormalizeTitle(title string) (string, error) {
	title = norm.NFC.String(strings.TrimSpace(title))
	switch {
	case title == "":
		return "", fmt.Errorf("%w: title is empty", ErrInvalidTitle)
	case title == "." || title == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidTitle, title)
	case strings.HasSuffix(title, "."):
		return "", fmt.Errorf("%w: %q ends with a dot", ErrInvalidTitle, title)
	case isReservedName(title):
		return "", fmt.Errorf("%w: %q is a reserved device name", ErrInvalidTitle, title)
	case strings.ContainsAny(title, `/\:*?"<>|`):
		return "", fmt.Errorf("%w: %q contains one of / \\ : * ? \" < > |", ErrInvalidTitle, title)
	}
	for _, r := range title {
		if r < 32 || r == 127 {
			return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidTitle, title)
		}
	}
	return title, nil
}
