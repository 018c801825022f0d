package run

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/giselles-ai/giselle-sub003/pkg/engine"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/progress"
	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
)

const (
	runningHeader  = "Running flow...\n\n"
	finishedHeader = "Finished running flow."
	failedHeader   = "Unexpected error on running flow"
)

// Reporter keeps the progress comment of one run in step with the act. It is
// the engine.Observer of that run. The lock is held across the comment calls
// so edits reach GitHub in the order the state changed.
type Reporter struct {
	client vcs.Client
	event  *event.WebhookEvent
	repo   vcs.Repository
	now    func() time.Time
	logger *slog.Logger

	mu           sync.Mutex
	rows         []models.ProgressTableRow
	hasFlowError bool
	comment      *models.CreatedComment
}

var _ engine.Observer = (*Reporter)(nil)

func NewReporter(client vcs.Client, ev *event.WebhookEvent, now func() time.Time, logger *slog.Logger) *Reporter {
	if now == nil {
		now = time.Now
	}

	return &Reporter{
		client: client,
		event:  ev,
		repo:   repositoryOf(ev),
		now:    now,
		logger: logger,
	}
}

// ActCreated lays out one pending row per sequence and creates the comment.
// A second call only refreshes the existing comment.
func (r *Reporter) ActCreated(ctx context.Context, act models.Act) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows = make([]models.ProgressTableRow, 0, len(act.Sequences))
	for _, sequence := range act.Sequences {
		r.rows = append(r.rows, models.ProgressTableRow{
			ID:     sequence.ID,
			Status: models.ProgressPending,
			Steps:  mapSteps(sequence.Steps, nil, nil, nil),
		})
	}

	body := runningHeader + progress.BuildTable(r.rows)

	if r.comment != nil {
		return r.edit(ctx, body)
	}

	target, ok := selectTarget(r.event)
	if !ok {
		r.logger.Debug("Delivery has no comment target, running without progress comment")

		return nil
	}

	comment, err := target.create(ctx, r.client, r.repo, r.event, body)
	if err != nil {
		return fmt.Errorf("failed to create %s progress comment: %w", target.name, err)
	}

	r.comment = comment

	return nil
}

func (r *Reporter) SequenceStarted(ctx context.Context, sequence models.Sequence) error {
	return r.transition(ctx, sequence, models.ProgressInProgress, false)
}

func (r *Reporter) SequenceCompleted(ctx context.Context, sequence models.Sequence) error {
	return r.transition(ctx, sequence, models.ProgressSuccess, false)
}

func (r *Reporter) SequenceFailed(ctx context.Context, sequence models.Sequence) error {
	return r.transition(ctx, sequence, models.ProgressFailed, true)
}

// SequenceSkipped marks the row failed without counting it as a flow error.
func (r *Reporter) SequenceSkipped(ctx context.Context, sequence models.Sequence) error {
	return r.transition(ctx, sequence, models.ProgressFailed, false)
}

// Finish writes the closing message. It is a no-op when no comment was created.
func (r *Reporter) Finish(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header := finishedHeader
	if r.hasFlowError {
		header = failedHeader
	}

	return r.edit(ctx, header+"\n\n"+progress.BuildTable(r.rows))
}

// Comment returns the run's progress comment, if one was created.
func (r *Reporter) Comment() *models.CreatedComment {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.comment == nil {
		return nil
	}

	comment := *r.comment

	return &comment
}

// Rows returns a copy of the current table rows.
func (r *Reporter) Rows() []models.ProgressTableRow {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]models.ProgressTableRow, len(r.rows))
	for i, row := range r.rows {
		rows[i] = row
		rows[i].Steps = append([]models.MiniStepRow(nil), row.Steps...)
	}

	return rows
}

func (r *Reporter) HasFlowError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.hasFlowError
}

// transition moves the row of sequence to status and re-renders. Rows never move
// backwards: a late start after completion leaves the row completed.
func (r *Reporter) transition(ctx context.Context, sequence models.Sequence, status models.ProgressStatus, flowError bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()

	stamp := models.ProgressStatus.Terminal
	if status == models.ProgressInProgress {
		stamp = func(s models.ProgressStatus) bool { return s == models.ProgressInProgress }
	}

	for i := range r.rows {
		row := &r.rows[i]
		if row.ID != sequence.ID {
			continue
		}

		if next := progress.Advance(row.Status, status); next == status {
			row.Status = next
			row.UpdatedAt = &now
		}

		row.Steps = mapSteps(sequence.Steps, row.Steps, stamp, &now)
	}

	if flowError {
		r.hasFlowError = true
	}

	return r.edit(ctx, runningHeader+progress.BuildTable(r.rows))
}

// mapSteps converts engine steps to table steps. A step keeps its previous
// timestamp unless its new status satisfies stamp, and never regresses.
func mapSteps(steps []models.Step, previous []models.MiniStepRow, stamp func(models.ProgressStatus) bool, now *time.Time) []models.MiniStepRow {
	known := make(map[string]models.MiniStepRow, len(previous))
	for _, step := range previous {
		known[step.ID] = step
	}

	rows := make([]models.MiniStepRow, 0, len(steps))

	for _, step := range steps {
		row := models.MiniStepRow{
			ID:     step.ID,
			Name:   step.Name,
			Status: progress.MapStepStatus(step.Status),
		}

		if before, ok := known[step.ID]; ok {
			row.Status = progress.Advance(before.Status, row.Status)
			row.UpdatedAt = before.UpdatedAt

			if row.Name == "" {
				row.Name = before.Name
			}
		}

		if stamp != nil && stamp(row.Status) {
			row.UpdatedAt = now
		}

		rows = append(rows, row)
	}

	return rows
}

// edit must be called with the lock held.
func (r *Reporter) edit(ctx context.Context, body string) error {
	if r.comment == nil {
		return nil
	}

	if err := updateComment(ctx, r.client, r.repo, r.comment, body); err != nil {
		return fmt.Errorf("failed to update progress comment: %w", err)
	}

	return nil
}
