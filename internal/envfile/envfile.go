// Package envfile writes API keys into dotenv files without disturbing the
// rest of their content.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/flotiq/flotiq-setup/internal/console"
	"github.com/flotiq/flotiq-setup/internal/logger"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Entry is one key to write into each of Files
type Entry struct {
	Key     string
	Value   string
	Files   []string
	Comment string
}

// Result is what Upsert did to a file
type Result int

const (
	// Created means the key was appended
	Created Result = iota + 1
	// Updated means an empty assignment was filled in
	Updated
	// Skipped means the key already had a value
	Skipped
)

func (r Result) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidKey is returned for names that cannot be used as env variables
	ErrInvalidKey = errors.New("invalid env key")
	// ErrInvalidValue is returned for values that would span several lines
	ErrInvalidValue = errors.New("invalid env value")

	keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Persist writes every entry into each of its files and reports one line per
// file and key. A failing file does not stop the others; all failures are
// returned together.
func Persist(entries []Entry, report console.Reporter) error {
	var errs error
	for _, entry := range entries {
		for _, file := range entry.Files {
			result, err := Upsert(file, entry.Key, entry.Value, entry.Comment)
			if err != nil {
				logger.Error("Failed to write env file", zap.String("file", file), zap.String("key", entry.Key), zap.Error(err))
				report.Error("Failed to write %s to %s: %v", entry.Key, file, err)
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", file, err))
				continue
			}

			logger.Debug("Env file entry written",
				zap.String("file", file),
				zap.String("key", entry.Key),
				zap.Stringer("result", result),
			)

			switch result {
			case Created:
				report.Success("%s added to %s", entry.Key, file)
			case Updated:
				report.Success("%s updated in %s", entry.Key, file)
			case Skipped:
				report.Warning("%s already exists in %s, skipping", entry.Key, file)
			}
		}
	}
	return errs
}

// Upsert sets key in the dotenv file at path unless it already has a
// non-empty value. A missing file is created. A key present with an empty
// value is filled in on its own line; otherwise the assignment is appended,
// preceded by "# comment" when comment is set. Other lines are left as-is.
func Upsert(path, key, value, comment string) (Result, error) {
	if !keyPattern.MatchString(key) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsAny(value, "\r\n") || strings.ContainsAny(comment, "\r\n") {
		return 0, fmt.Errorf("%w: must be a single line", ErrInvalidValue)
	}

	created, err := ensureFile(path)
	if err != nil {
		return 0, err
	}
	if created {
		logger.Info("Env file created", zap.String("file", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read env file: %w", err)
	}

	existing, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		// Fall back to the line scan below for files godotenv can't read
		logger.Warn("Failed to parse env file", zap.String("file", path), zap.Error(err))
		existing = nil
	}
	if v, ok := existing[key]; ok && v != "" {
		return Skipped, nil
	}

	lines := strings.Split(string(data), "\n")
	if idx := findAssignment(lines, key); idx >= 0 {
		if lineValue(lines[idx], key) != "" {
			return Skipped, nil
		}
		lines[idx] = replaceValue(lines[idx], key, value)
		if err := writeFile(path, []byte(strings.Join(lines, "\n"))); err != nil {
			return 0, err
		}
		return Updated, nil
	}

	var b strings.Builder
	b.Write(data)
	if len(data) > 0 && !strings.HasSuffix(string(data), "\n") {
		b.WriteString("\n")
	}
	if comment != "" {
		b.WriteString("# " + comment + "\n")
	}
	b.WriteString(key + "=" + value + "\n")

	if err := writeFile(path, []byte(b.String())); err != nil {
		return 0, err
	}
	return Created, nil
}

// ensureFile creates an empty file at path if none exists
func ensureFile(path string) (bool, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create env file: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to create env file: %w", err)
	}
	return true, nil
}

// findAssignment returns the index of the last line assigning key, or -1.
// godotenv lets the last assignment win, so that is the one to fill in.
func findAssignment(lines []string, key string) int {
	found := -1
	for i, line := range lines {
		if _, ok := assignmentValue(line, key); ok {
			found = i
		}
	}
	return found
}

// assignmentValue returns the raw text after the separator when line assigns key
func assignmentValue(line, key string) (string, bool) {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "export ")
	s = strings.TrimLeft(s, " \t")
	if !strings.HasPrefix(s, key) {
		return "", false
	}
	rest := strings.TrimLeft(s[len(key):], " \t")
	if rest == "" || (rest[0] != '=' && rest[0] != ':') {
		return "", false
	}
	return rest[1:], true
}

// lineValue parses the value assigned on a single line
func lineValue(line, key string) string {
	parsed, err := godotenv.Unmarshal(strings.TrimSuffix(line, "\r"))
	if err != nil {
		raw, _ := assignmentValue(line, key)
		return strings.Trim(strings.TrimSpace(raw), `"'`)
	}
	return parsed[key]
}

// replaceValue rewrites an empty assignment, keeping an export prefix and CRLF ending
func replaceValue(line, key, value string) string {
	var prefix string
	if strings.HasPrefix(strings.TrimSpace(line), "export ") {
		prefix = "export "
	}
	var suffix string
	if strings.HasSuffix(line, "\r") {
		suffix = "\r"
	}
	return prefix + key + "=" + value + suffix
}

// writeFile replaces path through a temporary file in the same directory,
// keeping the original permissions.
func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat env file: %w", err)
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".env-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary env file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write env file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync env file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary env file: %w", err)
	}
	if err := os.Chmod(tempPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set env file permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to save env file: %w", err)
	}

	success = true
	return nil
}
