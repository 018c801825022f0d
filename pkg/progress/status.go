// Package progress renders the live status table posted to GitHub for a run.
package progress

import "github.com/giselles-ai/giselle-sub003/pkg/models"

// MapStepStatus collapses an engine step status to the reporting status.
func MapStepStatus(status models.StepStatus) models.ProgressStatus {
	switch status {
	case models.StepRunning:
		return models.ProgressInProgress
	case models.StepCompleted:
		return models.ProgressSuccess
	case models.StepFailed, models.StepCancelled:
		return models.ProgressFailed
	default:
		return models.ProgressPending
	}
}

// Advance returns next unless it would move backwards from current.
func Advance(current, next models.ProgressStatus) models.ProgressStatus {
	if current.Terminal() || next.Rank() < current.Rank() {
		return current
	}

	return next
}

func glyph(status models.ProgressStatus) string {
	switch status {
	case models.ProgressInProgress:
		return "⏳"
	case models.ProgressSuccess:
		return "✅"
	case models.ProgressFailed:
		return "❌"
	default:
		return "○"
	}
}

func statusText(status models.ProgressStatus) string {
	switch status {
	case models.ProgressInProgress:
		return "Running"
	case models.ProgressSuccess:
		return "Completed"
	case models.ProgressFailed:
		return "Failed"
	default:
		return "Pending"
	}
}
