package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grabtune/grabtune/internal/model"
)

func TestParseLine_DownloadPercent(t *testing.T) {
	tests := []struct {
		line string
		pct  float64
	}{
		{"[download] 45.2% of 3.45MiB at 1.23MiB/s ETA 00:02", 45.2},
		{"[download] 100% of 3.45MiB in 00:15", 100},
		{"[download] 0% of 5.67MiB", 0},
		{"[download] 67.8% of 2.1MiB at 500KiB/s", 67.8},
	}

	for _, test := range tests {
		p, ok := ParseLine(test.line)
		require.True(t, ok, "should parse %q", test.line)
		assert.Equal(t, model.StageDownloadingAudio, p.Stage)
		require.NotNil(t, p.Percentage)
		assert.InDelta(t, test.pct, *p.Percentage, 0.01)
	}
}

func TestParseLine_StageIndicators(t *testing.T) {
	tests := []struct {
		line  string
		stage model.Stage
	}{
		{"Initializing download process", model.StageInitializing},
		{"Fetching video metadata", model.StageFetchingMetadata},
		{"Getting video info", model.StageFetchingMetadata},
		{"[download] Destination: file.mp3", model.StageDownloadingAudio},
		{"Remuxing audio stream", model.StageRemuxing},
		{"Processing audio file", model.StageRemuxing},
		{"Applying tags to file", model.StageApplyingTags},
		{"Writing metadata", model.StageApplyingTags},
		{"Finalizing download", model.StageFinalizing},
		{"Download completed", model.StageFinalizing},
	}

	for _, test := range tests {
		p, ok := ParseLine(test.line)
		require.True(t, ok, "should parse %q", test.line)
		assert.Equal(t, test.stage, p.Stage, "line %q", test.line)
		assert.Equal(t, test.line, p.CurrentStep)
	}
}

func TestParseLine_StepCounters(t *testing.T) {
	tests := []struct {
		line    string
		current int
		total   int
		pct     float64
	}{
		{"Step 3 of 5: Processing audio", 3, 5, 60},
		{"[2/4] Downloading track", 2, 4, 50},
		{"Step 1 of 1: Complete", 1, 1, 100},
	}

	for _, test := range tests {
		p, ok := ParseLine(test.line)
		require.True(t, ok, "should parse %q", test.line)
		require.NotNil(t, p.CurrentStepIndex)
		require.NotNil(t, p.TotalSteps)
		require.NotNil(t, p.Percentage)
		assert.Equal(t, test.current, *p.CurrentStepIndex)
		assert.Equal(t, test.total, *p.TotalSteps)
		assert.InDelta(t, test.pct, *p.Percentage, 0.01)
	}
}

func TestParseLine_KeywordFallback(t *testing.T) {
	tests := []struct {
		line  string
		stage model.Stage
	}{
		{"extracting information", model.StageFetchingMetadata},
		{"remuxing to m4a", model.StageRemuxing},
		{"adding tags", model.StageApplyingTags},
		{"all done", model.StageFinalizing},
	}

	for _, test := range tests {
		p, ok := ParseLine(test.line)
		require.True(t, ok, "should parse %q", test.line)
		assert.Equal(t, test.stage, p.Stage, "line %q", test.line)
	}
}

func TestParseLine_Unrecognized(t *testing.T) {
	for _, line := range []string{
		"",
		"random noise with no markers",
		"~~~~~~~",
	} {
		_, ok := ParseLine(line)
		assert.False(t, ok, "should not parse %q", line)
	}
}

func TestExtractPercentage(t *testing.T) {
	tests := []struct {
		text string
		pct  float64
		ok   bool
	}{
		{"45.2%", 45.2, true},
		{"100%", 100, true},
		{"0%", 0, true},
		{"0.452", 45.2, true},
		{"1.0", 100, true},
		{"150%", 100, true}, // clamped
		{"no percentage here", 0, false},
	}

	for _, test := range tests {
		pct, ok := ExtractPercentage(test.text)
		assert.Equal(t, test.ok, ok, "text %q", test.text)
		if test.ok {
			assert.InDelta(t, test.pct, pct, 0.01, "text %q", test.text)
		}
	}
}

func TestIsErrorLine(t *testing.T) {
	for _, line := range []string{
		"Error: Failed to download",
		"ERROR: Network timeout",
		"Exception occurred during processing",
		"Fatal: Cannot continue",
		"Download failed with error code 1",
	} {
		assert.True(t, IsErrorLine(line), "should detect error: %q", line)
	}

	for _, line := range []string{
		"[download] 50% complete",
		"Processing audio file",
		"Download completed successfully",
	} {
		assert.False(t, IsErrorLine(line), "should not detect error: %q", line)
	}
}

func TestIsCompletionLine(t *testing.T) {
	for _, line := range []string{
		"Download completed successfully",
		"Successfully downloaded track.mp3",
		"Finished downloading album",
		"[download] 100% of 5.0MiB",
	} {
		assert.True(t, IsCompletionLine(line), "should detect completion: %q", line)
	}

	for _, line := range []string{
		"[download] 50% complete",
		"Starting download",
	} {
		assert.False(t, IsCompletionLine(line), "should not detect completion: %q", line)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"\x1b[32mGreen text\x1b[0m", "Green text"},
		{"\x1b[1;31mBold red\x1b[0m", "Bold red"},
		{"Normal text", "Normal text"},
		{"  \x1b[33mYellow\x1b[0m  ", "Yellow"},
	}

	for _, test := range tests {
		assert.Equal(t, test.out, Sanitize(test.in))
	}
}
