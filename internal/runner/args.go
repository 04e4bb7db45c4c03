package runner

import (
	"strconv"
	"strings"

	"github.com/grabtune/grabtune/internal/config"
)

// ValidateURL reports whether the string is an acceptable download request:
// an HTTP(S) link to YouTube Music or a plain YouTube watch/playlist page.
func ValidateURL(url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false
	}

	return strings.Contains(url, "music.youtube.com") ||
		strings.Contains(url, "youtube.com/watch") ||
		strings.Contains(url, "youtube.com/playlist") ||
		strings.Contains(url, "youtu.be/")
}

// BuildArgs encodes a configuration snapshot and the request URL into the
// gytmdl argument list. Flag names are owned by the external tool; this
// function only assembles them in a stable order, URL last.
func BuildArgs(cfg config.Config, url string) []string {
	args := []string{
		"--output-path", cfg.OutputPath,
		"--temp-path", cfg.TempPath,
	}

	if cfg.CookiesPath != "" {
		args = append(args, "--cookies-path", cfg.CookiesPath)
	}

	args = append(args, "--itag", cfg.ITag)

	switch cfg.DownloadMode {
	case config.ModeVideo:
		args = append(args, "--video")
	case config.ModeAudioVideo:
		args = append(args, "--audio-video")
	}

	if cfg.SaveCover {
		args = append(args,
			"--cover-size", strconv.Itoa(cfg.CoverSize),
			"--cover-format", string(cfg.CoverFormat),
			"--cover-quality", strconv.Itoa(cfg.CoverQuality),
		)
	} else {
		args = append(args, "--no-cover")
	}

	args = append(args,
		"--template-folder", cfg.TemplateFolder,
		"--template-file", cfg.TemplateFile,
		"--template-date", cfg.TemplateDate,
	)

	if token := strings.TrimSpace(cfg.POToken); token != "" {
		args = append(args, "--po-token", token)
	}

	if tags := strings.TrimSpace(cfg.ExcludeTags); tags != "" {
		args = append(args, "--exclude-tags", tags)
	}

	if cfg.Truncate > 0 {
		args = append(args, "--truncate", strconv.Itoa(cfg.Truncate))
	}

	if cfg.Overwrite {
		args = append(args, "--overwrite")
	}

	if cfg.NoSyncedLyrics {
		args = append(args, "--no-synced-lyrics")
	}

	// Progress markers on stdout are required for parsing.
	args = append(args, "--progress", "--verbose", url)

	return args
}
