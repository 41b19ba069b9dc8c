// Package assets embeds the default dictionary and the SQL migrations.
package assets

import (
	"bufio"
	"embed"
	"io"
	"strings"
)

//go:embed dictionary.txt migrations
var FS embed.FS

// ReadLines reads one word per line, trimmed and lower-cased.
// Blank lines and lines starting with '#' are skipped.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// DictionaryList returns the embedded default word list.
func DictionaryList() ([]string, error) {
	f, err := FS.Open("dictionary.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}
