// Package cookies imports and inspects Netscape-format cookies.txt files
// used to authenticate the downloader against YouTube Music. Imported files
// are copied into a managed directory so the original export can be deleted.
package cookies

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const fileName = "cookies.txt"

// FormatError means the file is not a usable cookies.txt export.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid cookie file: " + e.Reason
}

// Info describes the state of a cookie file.
type Info struct {
	IsValid           bool   `json:"is_valid"`
	ExpirationWarning string `json:"expiration_warning,omitempty"`
	POTokenPresent    bool   `json:"po_token_present"`
	FilePath          string `json:"file_path,omitempty"`
}

// Manager owns the managed cookies directory.
type Manager struct {
	dir    string
	logger zerolog.Logger
}

// NewManager creates a manager rooted at dir. The directory is created
// lazily on first import.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		logger: log.With().Str("component", "cookies").Logger(),
	}
}

// Path returns the managed cookies file location, whether or not it exists.
func (m *Manager) Path() string {
	return filepath.Join(m.dir, fileName)
}

// Import validates a cookies.txt export and copies it into the managed
// directory, replacing any previous import.
func (m *Manager) Import(src string) (Info, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Info{}, fmt.Errorf("read cookie file %q: %w", src, err)
	}
	content := string(data)

	if err := validateContent(content); err != nil {
		return Info{}, err
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return Info{}, fmt.Errorf("create cookies directory: %w", err)
	}

	target := m.Path()
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return Info{}, fmt.Errorf("store cookie file: %w", err)
	}

	m.logger.Info().Str("path", target).Msg("cookies imported")

	info := analyze(content)
	info.FilePath = target
	return info, nil
}

// Validate inspects the managed cookie file. A missing file is reported in
// the Info, not as an error.
func (m *Manager) Validate() (Info, error) {
	path := m.Path()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Info{ExpirationWarning: "No cookies file found"}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("read cookie file %q: %w", path, err)
	}

	info := analyze(string(data))
	info.FilePath = path
	return info, nil
}

// Clear removes the managed cookie file. Removing a missing file is fine.
func (m *Manager) Clear() error {
	if err := os.Remove(m.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cookie file: %w", err)
	}
	m.logger.Info().Msg("cookies cleared")
	return nil
}

// validateContent checks the Netscape tab-separated layout and requires at
// least one youtube.com cookie.
func validateContent(content string) error {
	var cookieLines, youtubeLines int

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 6 {
			return &FormatError{Reason: fmt.Sprintf(
				"expected at least 6 tab-separated fields, got %d", len(parts))}
		}

		if strings.Contains(parts[0], "youtube.com") {
			youtubeLines++
		}
		cookieLines++
	}

	if cookieLines == 0 {
		return &FormatError{Reason: "no cookie lines found"}
	}
	if youtubeLines == 0 {
		return &FormatError{Reason: "no YouTube cookies found; export cookies from youtube.com or music.youtube.com"}
	}
	return nil
}

// analyze reports validity, soon-to-expire cookies, and whether a PO token
// cookie is present. Malformed lines are skipped rather than rejected.
func analyze(content string) Info {
	var (
		hasYouTube bool
		hasPOToken bool
		warnings   []string
	)
	now := time.Now().Unix()

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 7 {
			continue
		}

		domain, expiry, name, value := parts[0], parts[4], parts[5], parts[6]
		if !strings.Contains(domain, "youtube.com") {
			continue
		}
		hasYouTube = true

		if name == "__Secure-YT-Core-PO-Token" || strings.Contains(name, "PO") {
			hasPOToken = true
		}

		if exp, err := strconv.ParseInt(expiry, 10, 64); err == nil && exp != 0 {
			days := (exp - now) / 86400
			switch {
			case days < 0:
				warnings = append(warnings, fmt.Sprintf("Cookie %q has expired", name))
			case days < 7:
				warnings = append(warnings, fmt.Sprintf("Cookie %q expires in %d days", name, days))
			}
		}

		switch name {
		case "SAPISID", "HSID", "SSID":
			if value == "" {
				warnings = append(warnings, fmt.Sprintf("Important cookie %q is empty", name))
			}
		}
	}

	return Info{
		IsValid:           hasYouTube,
		ExpirationWarning: strings.Join(warnings, "; "),
		POTokenPresent:    hasPOToken,
	}
}
