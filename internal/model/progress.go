package model

// Stage identifies the phase of a download reported by the gytmdl process.
type Stage string

const (
	StageInitializing     Stage = "Initializing"
	StageFetchingMetadata Stage = "FetchingMetadata"
	StageDownloadingAudio Stage = "DownloadingAudio"
	StageRemuxing         Stage = "Remuxing"
	StageApplyingTags     Stage = "ApplyingTags"
	StageFinalizing       Stage = "Finalizing"
	StageCompleted        Stage = "Completed"
	StageFailed           Stage = "Failed"
)

// Progress is an advisory description of how far a job has come. Any field
// beyond Stage may be absent; consumers must tolerate partial population.
type Progress struct {
	Stage            Stage    `json:"stage"`
	Percentage       *float64 `json:"percentage,omitempty"` // 0 to 100
	CurrentStep      string   `json:"current_step"`
	TotalSteps       *int     `json:"total_steps,omitempty"`
	CurrentStepIndex *int     `json:"current_step_index,omitempty"`
}

// QueuedProgress is the progress a job carries while waiting for dispatch.
func QueuedProgress() Progress {
	return Progress{
		Stage:       StageInitializing,
		CurrentStep: "Waiting in queue",
	}
}

// InitializingProgress is the progress set when a downloader process is
// being started for the job.
func InitializingProgress() Progress {
	return Progress{
		Stage:       StageInitializing,
		CurrentStep: "Initializing download...",
	}
}

// CompletedProgress is the final progress of a successfully finished job.
func CompletedProgress() Progress {
	pct := 100.0
	return Progress{
		Stage:       StageCompleted,
		Percentage:  &pct,
		CurrentStep: "Download completed successfully",
	}
}
