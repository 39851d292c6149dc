// Package session discovers and manages recorded sessions (rollouts): the
// append-only JSONL transcripts written under the sessions directory. It only
// reads the header and state lines; the transcript body is opaque to it.
package session

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Entry summarizes one recorded session.
type Entry struct {
	// ID is the session uuid from the rollout header.
	ID string
	// Timestamp is the ISO-8601 creation time from the header.
	Timestamp string
	// Name is the human-assigned title from the latest state line, if any.
	Name string
	// Path is the rollout file location.
	Path string
	// Cwd is the working directory recorded in the header, if any.
	Cwd string
	// Instructions is the header instructions text, used as a title fallback.
	Instructions string
	// LastModified is the file modification time.
	LastModified time.Time
}

// Title returns the display title: the assigned name, else the first line of
// the instructions, else a placeholder.
func (e Entry) Title() string {
	if name := strings.TrimSpace(e.Name); name != "" {
		return name
	}
	line := strings.TrimSpace(firstLine(e.Instructions))
	if line == "" {
		return "(no title)"
	}
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// List returns up to limit sessions under root, newest first. A missing
// sessions directory yields an empty list.
func List(root string, limit int) ([]Entry, error) {
	entries, err := collect(root)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func collect(root string) ([]Entry, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var out []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "rollout-") || !strings.HasSuffix(name, ".jsonl") {
			return nil
		}
		entry, errRead := readEntry(path)
		if errRead != nil {
			// Unreadable or half-written rollouts are skipped, not fatal.
			return nil
		}
		out = append(out, *entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("session: scan %s: %w", root, err)
	}
	return out, nil
}

// readEntry parses the rollout header line plus any trailing state lines.
// The last state line wins, mirroring the append-only naming scheme.
func readEntry(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("session: %s is empty", path)
	}
	header := scanner.Text()
	if !gjson.Valid(header) {
		return nil, fmt.Errorf("session: %s has an invalid header", path)
	}
	meta := gjson.Parse(header)
	id := meta.Get("id").String()
	if id == "" {
		return nil, fmt.Errorf("session: %s header has no id", path)
	}

	entry := &Entry{
		ID:           id,
		Timestamp:    meta.Get("timestamp").String(),
		Path:         path,
		Cwd:          meta.Get("cwd").String(),
		Instructions: meta.Get("instructions").String(),
	}

	for scanner.Scan() {
		line := scanner.Text()
		if !gjson.Valid(line) {
			continue
		}
		record := gjson.Parse(line)
		if record.Get("record_type").String() != "state" {
			continue
		}
		if name := record.Get("name"); name.Exists() {
			entry.Name = name.String()
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	if info, errStat := os.Stat(path); errStat == nil {
		entry.LastModified = info.ModTime()
	}
	return entry, nil
}

// Resolve maps an id (full or prefix) or a literal path to a rollout file.
// An ambiguous prefix is an error.
func Resolve(root, idOrPath string) (string, error) {
	if _, err := os.Stat(idOrPath); err == nil {
		return idOrPath, nil
	}

	entries, err := collect(root)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(strings.ReplaceAll(idOrPath, "-", ""))
	var matches []Entry
	for _, e := range entries {
		id := strings.ToLower(strings.ReplaceAll(e.ID, "-", ""))
		if strings.HasPrefix(id, needle) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("session: no session found matching id prefix %s", idOrPath)
	case 1:
		return matches[0].Path, nil
	default:
		return "", fmt.Errorf("session: multiple sessions match prefix %s; please be more specific", idOrPath)
	}
}

// SetName assigns a human-friendly title by appending a state line. Earlier
// lines keep the transcript history intact.
func SetName(path, name string) error {
	line, err := sjson.Set(`{"record_type":"state"}`, "name", name)
	if err != nil {
		return fmt.Errorf("session: build state line: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("session: open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, err = f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("session: append state line: %w", err)
	}
	return nil
}

// CompactTime shortens an ISO timestamp like 2025-08-28T17:59:34.062Z to
// "2025-08-28 17:59" for listing output.
func CompactTime(iso string) string {
	s := strings.ReplaceAll(strings.ReplaceAll(iso, "T", " "), "Z", "")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return s
}

// HumanDuration renders a duration as a coarse "3m"/"2h"/"5d" string.
func HumanDuration(d time.Duration) string {
	s := int64(d.Seconds())
	switch {
	case s < 90:
		return fmt.Sprintf("%ds", s)
	case s < 90*60:
		return fmt.Sprintf("%dm", s/60)
	case s < 48*3600:
		return fmt.Sprintf("%dh", s/3600)
	default:
		return fmt.Sprintf("%dd", s/86400)
	}
}

// ShortenPath replaces the user's home directory prefix with "~".
func ShortenPath(p string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if strings.HasPrefix(p, home) {
		rest := strings.TrimPrefix(strings.TrimPrefix(p, home), string(os.PathSeparator))
		return "~" + string(os.PathSeparator) + rest
	}
	return p
}
