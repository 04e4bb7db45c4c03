package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabtune/grabtune/internal/config"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://music.youtube.com/watch?v=abc123", true},
		{"https://music.youtube.com/playlist?list=OLAK5uy_xyz", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"https://www.youtube.com/playlist?list=PLxyz", true},
		{"https://youtu.be/dQw4w9WgXcQ", true},
		{"http://music.youtube.com/watch?v=abc", true},

		{"", false},
		{"not a url", false},
		{"ftp://music.youtube.com/watch?v=abc", false},
		{"https://example.com/watch?v=abc", false},
		{"https://vimeo.com/12345", false},
		{"music.youtube.com/watch?v=abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateURL(tt.url))
		})
	}
}

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.OutputPath = "/music"
	cfg.TempPath = "/tmp/work"
	return cfg
}

func TestBuildArgsDefaults(t *testing.T) {
	url := "https://music.youtube.com/watch?v=abc"
	args := BuildArgs(baseConfig(), url)

	require.NotEmpty(t, args)
	assert.Equal(t, []string{"--output-path", "/music", "--temp-path", "/tmp/work"}, args[:4])
	assert.Equal(t, url, args[len(args)-1], "URL must come last")

	assert.Contains(t, args, "--itag")
	assert.Contains(t, args, "141")
	assert.Contains(t, args, "--progress")
	assert.Contains(t, args, "--verbose")

	// Audio mode is the downloader's default and gets no flag.
	assert.NotContains(t, args, "--video")
	assert.NotContains(t, args, "--audio-video")
	assert.NotContains(t, args, "--cookies-path")
}

func TestBuildArgsCoverSettings(t *testing.T) {
	cfg := baseConfig()
	cfg.SaveCover = true
	cfg.CoverSize = 800
	cfg.CoverFormat = config.CoverPNG
	cfg.CoverQuality = 80

	args := BuildArgs(cfg, "https://youtu.be/x")
	assert.Contains(t, args, "--cover-size")
	assert.Contains(t, args, "800")
	assert.Contains(t, args, "png")
	assert.Contains(t, args, "80")
	assert.NotContains(t, args, "--no-cover")

	cfg.SaveCover = false
	args = BuildArgs(cfg, "https://youtu.be/x")
	assert.Contains(t, args, "--no-cover")
	assert.NotContains(t, args, "--cover-size")
}

func TestBuildArgsOptionalFlags(t *testing.T) {
	cfg := baseConfig()
	cfg.CookiesPath = "/home/u/cookies.txt"
	cfg.DownloadMode = config.ModeAudioVideo
	cfg.POToken = "  tok123  "
	cfg.ExcludeTags = "lyrics"
	cfg.Truncate = 120
	cfg.Overwrite = true
	cfg.NoSyncedLyrics = true

	args := BuildArgs(cfg, "https://youtu.be/x")

	assert.Contains(t, args, "--cookies-path")
	assert.Contains(t, args, "/home/u/cookies.txt")
	assert.Contains(t, args, "--audio-video")
	assert.Contains(t, args, "--po-token")
	assert.Contains(t, args, "tok123", "token must be trimmed")
	assert.Contains(t, args, "--exclude-tags")
	assert.Contains(t, args, "--truncate")
	assert.Contains(t, args, "120")
	assert.Contains(t, args, "--overwrite")
	assert.Contains(t, args, "--no-synced-lyrics")
}

func TestBuildArgsVideoMode(t *testing.T) {
	cfg := baseConfig()
	cfg.DownloadMode = config.ModeVideo

	args := BuildArgs(cfg, "https://youtu.be/x")
	assert.Contains(t, args, "--video")
	assert.NotContains(t, args, "--audio-video")
}
