package progress

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/grabtune/grabtune/internal/model"
)

var (
	// "[download]  45.2% of 3.45MiB at 1.23MiB/s ETA 00:02"
	downloadRe = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%\s+of\s+[\d.]+\w+(?:\s+at\s+[\d.]+\w+/s)?(?:\s+ETA\s+[\d:]+)?(?:\s+in\s+[\d:]+)?`)

	// "Step 3 of 5: Processing audio" or "[3/5] Downloading track"
	stepRe = regexp.MustCompile(`(?:Step\s+(\d+)\s+of\s+(\d+)|\[(\d+)/(\d+)\])`)

	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)

	ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// ParseLine extracts a progress record from one line of downloader output.
// It returns false when the line carries no recognizable progress marker.
func ParseLine(line string) (model.Progress, bool) {
	line = strings.TrimSpace(line)

	if p, ok := parseDownloadPercent(line); ok {
		return p, true
	}
	if p, ok := parseStepCounter(line); ok {
		return p, true
	}
	if p, ok := parseStageIndicator(line); ok {
		return p, true
	}
	return parseStageKeywords(line)
}

// parseDownloadPercent handles percentage lines emitted during the audio
// download phase.
func parseDownloadPercent(line string) (model.Progress, bool) {
	m := downloadRe.FindStringSubmatch(line)
	if m == nil {
		return model.Progress{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return model.Progress{}, false
	}
	return model.Progress{
		Stage:       model.StageDownloadingAudio,
		Percentage:  &pct,
		CurrentStep: line,
	}, true
}

// parseStepCounter handles "Step X of Y" and "[X/Y]" markers, deriving a
// percentage from the step ratio.
func parseStepCounter(line string) (model.Progress, bool) {
	m := stepRe.FindStringSubmatch(line)
	if m == nil {
		return model.Progress{}, false
	}

	currentStr, totalStr := m[1], m[2]
	if currentStr == "" {
		currentStr, totalStr = m[3], m[4]
	}

	current, err1 := strconv.Atoi(currentStr)
	total, err2 := strconv.Atoi(totalStr)
	if err1 != nil || err2 != nil {
		return model.Progress{}, false
	}

	var pct *float64
	if total > 0 {
		v := math.Round(float64(current)/float64(total)*100*100) / 100
		pct = &v
	}

	return model.Progress{
		Stage:            stageFromKeywords(line, model.StageDownloadingAudio),
		Percentage:       pct,
		CurrentStep:      line,
		TotalSteps:       &total,
		CurrentStepIndex: &current,
	}, true
}

// parseStageIndicator matches the explicit phase announcements gytmdl prints
// between download percentage updates.
func parseStageIndicator(line string) (model.Progress, bool) {
	var stage model.Stage

	switch {
	case strings.Contains(line, "Initializing"),
		strings.Contains(line, "Starting"),
		strings.Contains(line, "Setting up"):
		stage = model.StageInitializing

	case strings.Contains(line, "Fetching") && (strings.Contains(line, "metadata") || strings.Contains(line, "info")),
		strings.Contains(line, "Getting video info"),
		strings.Contains(line, "Extracting"):
		stage = model.StageFetchingMetadata

	case strings.Contains(line, "[download]") && !strings.Contains(line, "%"):
		stage = model.StageDownloadingAudio

	case strings.Contains(line, "Remuxing"),
		strings.Contains(line, "Processing"),
		strings.Contains(line, "Converting"),
		strings.Contains(line, "Merging"):
		stage = model.StageRemuxing

	case strings.Contains(line, "Applying tags"),
		strings.Contains(line, "Writing tags"),
		strings.Contains(line, "Adding metadata"),
		strings.Contains(line, "Tagging"),
		strings.Contains(line, "Writing metadata"),
		strings.Contains(line, "Adding cover"):
		stage = model.StageApplyingTags

	case strings.Contains(line, "Finalizing"),
		strings.Contains(line, "Finishing"),
		strings.Contains(line, "Completed"),
		strings.Contains(line, "completed"),
		strings.Contains(line, "Done"):
		stage = model.StageFinalizing

	default:
		return model.Progress{}, false
	}

	return model.Progress{Stage: stage, CurrentStep: line}, true
}

// parseStageKeywords is the loose fallback used when no explicit marker
// matched.
func parseStageKeywords(line string) (model.Progress, bool) {
	lower := strings.ToLower(line)

	var stage model.Stage
	switch {
	case strings.Contains(lower, "init") || strings.Contains(lower, "start"):
		stage = model.StageInitializing
	case strings.Contains(lower, "fetch") || strings.Contains(lower, "extract") ||
		strings.Contains(lower, "metadata") || strings.Contains(lower, "info"):
		stage = model.StageFetchingMetadata
	case strings.Contains(lower, "download") || strings.Contains(lower, "audio"):
		stage = model.StageDownloadingAudio
	case strings.Contains(lower, "remux") || strings.Contains(lower, "process") ||
		strings.Contains(lower, "convert"):
		stage = model.StageRemuxing
	case strings.Contains(lower, "tag"):
		stage = model.StageApplyingTags
	case strings.Contains(lower, "final") || strings.Contains(lower, "complete") ||
		strings.Contains(lower, "done") || strings.Contains(lower, "finish"):
		stage = model.StageFinalizing
	default:
		return model.Progress{}, false
	}

	return model.Progress{Stage: stage, CurrentStep: line}, true
}

// stageFromKeywords infers the stage for a step-counter line from its text,
// falling back to the given default.
func stageFromKeywords(line string, fallback model.Stage) model.Stage {
	if p, ok := parseStageKeywords(line); ok {
		return p.Stage
	}
	return fallback
}

// ExtractPercentage pulls a percentage out of free-form text, accepting both
// "45.2%" and fractional "0.452" notations. Values are clamped to 0..100.
func ExtractPercentage(text string) (float64, bool) {
	if m := percentRe.FindStringSubmatch(text); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return math.Min(math.Max(pct, 0), 100), true
		}
	}

	if frac, err := strconv.ParseFloat(text, 64); err == nil && frac >= 0 && frac <= 1 {
		return frac * 100, true
	}

	return 0, false
}

// IsErrorLine reports whether a line indicates a failure condition.
func IsErrorLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "error") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "exception") ||
		strings.Contains(lower, "traceback") ||
		strings.HasPrefix(lower, "error:") ||
		strings.HasPrefix(lower, "fatal:")
}

// IsCompletionLine reports whether a line announces a finished download.
func IsCompletionLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "download completed") ||
		strings.Contains(lower, "successfully downloaded") ||
		strings.Contains(lower, "finished downloading") ||
		(strings.Contains(lower, "100%") && strings.Contains(lower, "download"))
}

// Sanitize strips ANSI color codes and surrounding whitespace so lines are
// safe for display and matching.
func Sanitize(line string) string {
	return strings.TrimSpace(ansiRe.ReplaceAllString(line, ""))
}
