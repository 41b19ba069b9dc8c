// internal/words/words.go
//
// Dictionary used to decide whether a submitted word is a legal English word.
//
// Responsibilities:
//   - Load a word list from a file (DICTIONARY_FILE) or fall back to the embedded default.
//   - Normalize entries to lowercase and answer case-insensitive lookups.
//
// Initialization behavior (Load):
//   1. If path is non-empty, read one word per line from that file.
//   2. Otherwise use the embedded assets/dictionary.txt, parsed once per process.
//
// A Dictionary is immutable after construction and safe for concurrent use.

package words

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/boggle/assets"
)

// ErrEmpty is returned when a word list contains no usable entries.
var ErrEmpty = errors.New("words: dictionary is empty")

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
	defaultErr  error
)

// Dictionary is a set of lowercase words.
type Dictionary struct {
	set map[string]struct{}
}

// New builds a dictionary from list. Entries are trimmed and lower-cased; blanks are dropped.
func New(list []string) *Dictionary {
	set := make(map[string]struct{}, len(list))
	for _, w := range list {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &Dictionary{set: set}
}

// Load reads the dictionary at path, or the embedded default when path is empty.
func Load(path string) (*Dictionary, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	list, err := assets.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	d := New(list)
	if d.Len() == 0 {
		return nil, ErrEmpty
	}
	return d, nil
}

// Default returns the embedded word list.
func Default() (*Dictionary, error) {
	defaultOnce.Do(func() {
		list, err := assets.DictionaryList()
		if err != nil {
			defaultErr = fmt.Errorf("read embedded dictionary: %w", err)
			return
		}
		defaultDict = New(list)
		if defaultDict.Len() == 0 {
			defaultErr = ErrEmpty
		}
	})
	return defaultDict, defaultErr
}

// Contains reports whether w is a dictionary word, ignoring case and surrounding space.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.set[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int { return len(d.set) }
