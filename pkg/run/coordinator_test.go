package run

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/giselles-ai/giselle-sub003/pkg/engine"
	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/mocks"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, time.March, 7, 21, 5, 0, 0, time.UTC)
	repo     = vcs.Repository{Owner: "acme", Name: "app"}
	anyCtx   = mock.Anything
)

type fixture struct {
	client     *mocks.MockVCSClient
	clients    *mocks.MockClientFactory
	engine     *mocks.MockEngine
	workspaces *mocks.MockWorkspaceLoader
	trigger    *models.FlowTrigger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		client:     &mocks.MockVCSClient{},
		clients:    &mocks.MockClientFactory{},
		engine:     &mocks.MockEngine{},
		workspaces: &mocks.MockWorkspaceLoader{},
		trigger: &models.FlowTrigger{
			ID:          "fltrg-1",
			WorkspaceID: "wrks-1",
			NodeID:      "nd-entry",
			Enable:      true,
			Configuration: models.TriggerConfiguration{
				Provider:       models.ProviderGitHub,
				InstallationID: 5,
				Event:          models.IssueLabeled{Conditions: models.LabelConditions{Labels: []string{"bug"}}},
			},
		},
	}

	f.clients.On("ForInstallation", anyCtx, int64(77)).Return(f.client, nil).Maybe()
	f.workspaces.On("Workspace", anyCtx, "wrks-1").Return(&models.Workspace{ID: "wrks-1"}, nil).Maybe()

	t.Cleanup(func() {
		f.client.AssertExpectations(t)
		f.engine.AssertExpectations(t)
	})

	return f
}

func (f *fixture) coordinator() *Coordinator {
	return NewCoordinator(f.engine, f.workspaces, f.clients, slog.Default(), WithClock(func() time.Time { return fixedNow }))
}

// drive makes the engine call play script against the run's observer.
func (f *fixture) drive(script func(ctx context.Context, observer engine.Observer) error) {
	f.engine.On("CreateAndStartAct", anyCtx, mock.AnythingOfType("engine.StartRequest"), mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			observer := args.Get(2).(engine.Observer)

			if err := script(ctx, observer); err != nil {
				panic(err)
			}
		}).
		Once()
}

func parse(t *testing.T, githubEvent, payload string) *event.WebhookEvent {
	t.Helper()

	ev, err := event.Parse(githubEvent, "delivery-1", []byte(payload))
	require.NoError(t, err)

	return ev
}

const repositoryJSON = `"repository":{"node_id":"R_1","name":"app","owner":{"login":"acme"}},"installation":{"id":77}`

func labeledIssue(t *testing.T) *event.WebhookEvent {
	t.Helper()

	return parse(t, "issues", `{"action":"labeled","issue":{"node_id":"I_42","number":42},"label":{"name":"bug"},`+repositoryJSON+`}`)
}

func twoSequenceAct() models.Act {
	return models.Act{
		ID: "act-1",
		Sequences: []models.Sequence{
			{ID: "sqn-1", Steps: []models.Step{{ID: "stp-1", Name: "Fetch issue", Status: models.StepCreated}}},
			{ID: "sqn-2", Steps: []models.Step{{ID: "stp-2", Name: "Summarize", Status: models.StepQueued}}},
		},
	}
}

func withStatus(sequence models.Sequence, status models.StepStatus) models.Sequence {
	steps := make([]models.Step, len(sequence.Steps))
	for i, step := range sequence.Steps {
		step.Status = status
		steps[i] = step
	}

	sequence.Steps = steps

	return sequence
}

func TestRun_SingleCommentForWholeRun(t *testing.T) {
	f := newFixture(t)
	act := twoSequenceAct()

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil).Once()
	f.client.On("CreateIssueComment", anyCtx, repo, 42, mock.MatchedBy(func(body string) bool {
		return strings.HasPrefix(body, "Running flow...\n\n<table>")
	})).Return(int64(1001), nil).Once()

	var bodies []string

	f.client.On("UpdateIssueComment", anyCtx, repo, int64(1001), mock.Anything).
		Run(func(args mock.Arguments) { bodies = append(bodies, args.String(3)) }).
		Return(nil)

	f.drive(func(ctx context.Context, observer engine.Observer) error {
		return errors.Join(
			observer.ActCreated(ctx, act),
			observer.SequenceStarted(ctx, withStatus(act.Sequences[0], models.StepRunning)),
			observer.SequenceCompleted(ctx, withStatus(act.Sequences[0], models.StepCompleted)),
			observer.SequenceStarted(ctx, withStatus(act.Sequences[1], models.StepRunning)),
			observer.SequenceCompleted(ctx, withStatus(act.Sequences[1], models.StepCompleted)),
		)
	})

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{
		ShouldRun: true, ReactionNodeID: "I_42",
	})
	require.NoError(t, err)

	require.Len(t, bodies, 5)

	for _, body := range bodies[:4] {
		assert.True(t, strings.HasPrefix(body, "Running flow...\n\n"))
	}

	final := bodies[4]
	assert.True(t, strings.HasPrefix(final, "Finished running flow.\n\n<table>"))
	assert.Equal(t, 2, strings.Count(final, "✅"))
	assert.Contains(t, final, "Updated: Mar 7, 2025 9:05pm")

	f.client.AssertNumberOfCalls(t, "CreateIssueComment", 1)
}

func TestRun_StartRequest(t *testing.T) {
	f := newFixture(t)
	ev := labeledIssue(t)

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil)
	f.engine.On("CreateAndStartAct", anyCtx, mock.MatchedBy(func(request engine.StartRequest) bool {
		return request.NodeID == "nd-entry" &&
			request.Workspace.ID == "wrks-1" &&
			request.Origin == "github-app" &&
			len(request.Inputs) == 1 &&
			request.Inputs[0].Kind == "github-webhook-event" &&
			request.Inputs[0].Event == ev &&
			request.RunID != ""
	}), mock.Anything).Return(nil).Once()

	err := f.coordinator().Run(context.Background(), f.trigger, ev, models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})

	require.NoError(t, err)
}

func TestRun_FailedSequenceReportsUnexpectedError(t *testing.T) {
	f := newFixture(t)
	act := twoSequenceAct()

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil)
	f.client.On("CreateIssueComment", anyCtx, repo, 42, mock.Anything).Return(int64(1001), nil)

	var last string

	f.client.On("UpdateIssueComment", anyCtx, repo, int64(1001), mock.Anything).
		Run(func(args mock.Arguments) { last = args.String(3) }).
		Return(nil)

	f.drive(func(ctx context.Context, observer engine.Observer) error {
		return errors.Join(
			observer.ActCreated(ctx, act),
			observer.SequenceStarted(ctx, withStatus(act.Sequences[0], models.StepRunning)),
			observer.SequenceFailed(ctx, withStatus(act.Sequences[0], models.StepFailed)),
			observer.SequenceSkipped(ctx, withStatus(act.Sequences[1], models.StepCancelled)),
		)
	})

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(last, "Unexpected error on running flow\n\n"))
	assert.Equal(t, 2, strings.Count(last, "❌"))
}

func TestRun_SkipAloneIsNotAFlowError(t *testing.T) {
	f := newFixture(t)
	act := twoSequenceAct()

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil)
	f.client.On("CreateIssueComment", anyCtx, repo, 42, mock.Anything).Return(int64(1001), nil)

	var last string

	f.client.On("UpdateIssueComment", anyCtx, repo, int64(1001), mock.Anything).
		Run(func(args mock.Arguments) { last = args.String(3) }).
		Return(nil)

	f.drive(func(ctx context.Context, observer engine.Observer) error {
		return errors.Join(
			observer.ActCreated(ctx, act),
			observer.SequenceCompleted(ctx, withStatus(act.Sequences[0], models.StepCompleted)),
			observer.SequenceSkipped(ctx, withStatus(act.Sequences[1], models.StepCancelled)),
		)
	})

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(last, "Finished running flow.\n\n"))
}

func TestRun_EngineErrorLeavesRunningComment(t *testing.T) {
	f := newFixture(t)
	act := twoSequenceAct()

	var bodies []string

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil)
	f.client.On("CreateIssueComment", anyCtx, repo, 42, mock.Anything).
		Run(func(args mock.Arguments) { bodies = append(bodies, args.String(3)) }).
		Return(int64(1001), nil).
		Once()
	f.client.On("UpdateIssueComment", anyCtx, repo, int64(1001), mock.Anything).
		Run(func(args mock.Arguments) { bodies = append(bodies, args.String(3)) }).
		Return(nil)

	f.engine.On("CreateAndStartAct", anyCtx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			observer := args.Get(2).(engine.Observer)

			require.NoError(t, observer.ActCreated(ctx, act))
			require.NoError(t, observer.SequenceStarted(ctx, withStatus(act.Sequences[0], models.StepRunning)))
		}).
		Return(errors.New("engine crashed")).
		Once()

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine crashed")

	require.Len(t, bodies, 2)

	last := bodies[len(bodies)-1]
	assert.True(t, strings.HasPrefix(last, "Running flow...\n\n"), "last body: %q", last)
	assert.NotContains(t, last, "Finished running flow.")
	assert.NotContains(t, last, "Unexpected error on running flow")
}

func TestRun_ReactionFailureAbortsBeforeEngine(t *testing.T) {
	f := newFixture(t)

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(errors.New("forbidden")).Once()

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})

	require.Error(t, err)
	f.engine.AssertNotCalled(t, "CreateAndStartAct", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_NoReactionNodeSkipsReaction(t *testing.T) {
	f := newFixture(t)

	f.engine.On("CreateAndStartAct", anyCtx, mock.Anything, mock.Anything).Return(nil).Once()

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true})

	require.NoError(t, err)
	f.client.AssertNotCalled(t, "AddReaction", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_CommentEditFailureAbortsRun(t *testing.T) {
	f := newFixture(t)
	act := twoSequenceAct()

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil)
	f.client.On("CreateIssueComment", anyCtx, repo, 42, mock.Anything).Return(int64(1001), nil)
	f.client.On("UpdateIssueComment", anyCtx, repo, int64(1001), mock.Anything).Return(errors.New("rate limited")).Once()

	f.engine.On("CreateAndStartAct", anyCtx, mock.Anything, mock.Anything).
		Return(errors.New("observer failed")).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			observer := args.Get(2).(engine.Observer)

			require.NoError(t, observer.ActCreated(ctx, act))
			assert.ErrorContains(t, observer.SequenceStarted(ctx, withStatus(act.Sequences[0], models.StepRunning)), "rate limited")
		}).
		Once()

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})

	require.Error(t, err)
}

func TestRun_WorkspaceFailureAbortsRun(t *testing.T) {
	f := newFixture(t)
	f.trigger.WorkspaceID = "wrks-gone"

	f.client.On("AddReaction", anyCtx, "I_42", vcs.ReactionEyes).Return(nil)
	f.workspaces.On("Workspace", anyCtx, "wrks-gone").Return(nil, errors.New("not found"))

	err := f.coordinator().Run(context.Background(), f.trigger, labeledIssue(t), models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"})

	require.Error(t, err)
	f.engine.AssertNotCalled(t, "CreateAndStartAct", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_FallsBackToConfiguredInstallation(t *testing.T) {
	f := newFixture(t)
	ev := parse(t, "issues", `{"action":"opened","issue":{"node_id":"I_1","number":1},"repository":{"node_id":"R_1"}}`)

	f.clients.On("ForInstallation", anyCtx, int64(5)).Return(f.client, nil).Once()
	f.engine.On("CreateAndStartAct", anyCtx, mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, f.coordinator().Run(context.Background(), f.trigger, ev, models.EventHandlerResult{ShouldRun: true}))
	f.clients.AssertExpectations(t)
}
