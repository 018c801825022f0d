package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/giselles-ai/giselle-sub003/pkg/github/event"
	"github.com/giselles-ai/giselle-sub003/pkg/integration"
	"github.com/giselles-ai/giselle-sub003/pkg/mocks"
	"github.com/giselles-ai/giselle-sub003/pkg/models"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/file"
	"github.com/giselles-ai/giselle-sub003/pkg/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, flowTrigger *models.FlowTrigger, ev *event.WebhookEvent, result models.EventHandlerResult) error {
	args := m.Called(ctx, flowTrigger.ID, result)

	return args.Error(0)
}

type stores struct {
	current  persistence.Persistence
	legacy   persistence.Persistence
	index    *integration.Resolver
	triggers *trigger.Repository
}

func newStores(t *testing.T) *stores {
	t.Helper()

	s := &stores{
		current: file.NewPersistence(t.TempDir()),
		legacy:  file.NewPersistence(t.TempDir()),
	}

	chain := persistence.NewChain(s.current, s.legacy)
	s.index = integration.NewResolver(chain)
	s.triggers = trigger.NewRepository(chain)

	return s
}

func labeled(id string, labels ...string) *models.FlowTrigger {
	return &models.FlowTrigger{
		ID:          id,
		WorkspaceID: "wrks-" + id,
		NodeID:      "nd-" + id,
		Enable:      true,
		Configuration: models.TriggerConfiguration{
			Provider: models.ProviderGitHub,
			Event:    models.IssueLabeled{Conditions: models.LabelConditions{Labels: labels}},
		},
	}
}

func (s *stores) register(t *testing.T, store persistence.Persistence, triggers ...*models.FlowTrigger) {
	t.Helper()

	ctx := context.Background()
	index := integration.NewResolver(store)
	repo := trigger.NewRepository(store)

	for _, tr := range triggers {
		require.NoError(t, repo.Save(ctx, tr))
		require.NoError(t, index.Add(ctx, "R_1", tr.ID))
	}
}

func labeledDelivery(t *testing.T, label string) *event.WebhookEvent {
	t.Helper()

	ev, err := event.Parse("issues", "d-1", []byte(`{
		"action": "labeled",
		"issue": {"node_id": "I_42", "number": 42},
		"label": {"name": "`+label+`"},
		"repository": {"node_id": "R_1", "name": "app", "owner": {"login": "acme"}}
	}`))
	require.NoError(t, err)

	return ev
}

func newDispatcher(t *testing.T, s *stores, runner Runner) *Dispatcher {
	t.Helper()

	d, err := New(s.index, s.triggers, runner, slog.Default())
	require.NoError(t, err)

	return d
}

func TestDispatch_RunsEveryMatchingTrigger(t *testing.T) {
	s := newStores(t)
	s.register(t, s.current, labeled("a", "bug"), labeled("b", "bug", "urgent"), labeled("c", "enhancement"))

	runner := &mockRunner{}
	match := models.EventHandlerResult{ShouldRun: true, ReactionNodeID: "I_42"}
	runner.On("Run", mock.Anything, "a", match).Return(nil).Once()
	runner.On("Run", mock.Anything, "b", match).Return(nil).Once()

	newDispatcher(t, s, runner).Dispatch(context.Background(), labeledDelivery(t, "bug"))

	runner.AssertExpectations(t)
	runner.AssertNotCalled(t, "Run", mock.Anything, "c", mock.Anything)
}

func TestDispatch_ReadsLegacyStore(t *testing.T) {
	s := newStores(t)
	s.register(t, s.legacy, labeled("old", "bug"))

	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "old", mock.Anything).Return(nil).Once()

	newDispatcher(t, s, runner).Dispatch(context.Background(), labeledDelivery(t, "bug"))

	runner.AssertExpectations(t)
}

func TestDispatch_IsolatesFailingTriggers(t *testing.T) {
	s := newStores(t)
	s.register(t, s.current, labeled("panics", "bug"), labeled("fails", "bug"), labeled("healthy", "bug"))

	// listed in the index but never stored
	require.NoError(t, s.index.Add(context.Background(), "R_1", "missing"))

	var mu sync.Mutex

	ran := map[string]bool{}
	record := func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()

		ran[args.String(1)] = true
	}

	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "panics", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(nil)
	runner.On("Run", mock.Anything, "fails", mock.Anything).Run(record).Return(errors.New("engine down"))
	runner.On("Run", mock.Anything, "healthy", mock.Anything).Run(record).Return(nil)

	assert.NotPanics(t, func() {
		newDispatcher(t, s, runner).Dispatch(context.Background(), labeledDelivery(t, "bug"))
	})

	assert.True(t, ran["healthy"])
	assert.True(t, ran["fails"])
	runner.AssertNumberOfCalls(t, "Run", 3)
}

func TestDispatch_SkipsDisabledAndForeignTriggers(t *testing.T) {
	s := newStores(t)

	disabled := labeled("disabled", "bug")
	disabled.Enable = false

	s.register(t, s.current, disabled)

	foreign := []byte(`{"id":"foreign","workspaceId":"w","nodeId":"n","enable":true,"configuration":{"provider":"gitlab"}}`)
	require.NoError(t, s.current.Put(context.Background(), persistence.FlowTriggerKey("foreign"), foreign))
	require.NoError(t, s.index.Add(context.Background(), "R_1", "foreign"))

	runner := &mockRunner{}

	newDispatcher(t, s, runner).Dispatch(context.Background(), labeledDelivery(t, "bug"))

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_IgnoresIrrelevantDeliveries(t *testing.T) {
	index := &mockIndex{}
	runner := &mockRunner{}

	d, err := New(index, &trigger.Repository{}, runner, slog.Default())
	require.NoError(t, err)

	push, err := event.Parse("push", "d-1", []byte(`{"repository":{"node_id":"R_1"}}`))
	require.NoError(t, err)

	edited, err := event.Parse("issues", "d-2", []byte(`{"action":"edited","repository":{"node_id":"R_1"}}`))
	require.NoError(t, err)

	noRepository, err := event.Parse("issues", "d-3", []byte(`{"action":"opened","issue":{"node_id":"I_1"}}`))
	require.NoError(t, err)

	for _, ev := range []*event.WebhookEvent{nil, push, edited, noRepository} {
		d.Dispatch(context.Background(), ev)
	}

	index.AssertNotCalled(t, "TriggerIDs", mock.Anything, mock.Anything)
}

func TestDispatch_UnknownRepositoryIsNoop(t *testing.T) {
	s := newStores(t)
	runner := &mockRunner{}

	newDispatcher(t, s, runner).Dispatch(context.Background(), labeledDelivery(t, "bug"))

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_IndexErrorStopsDelivery(t *testing.T) {
	store := &mocks.MockPersistence{}
	store.On("Get", mock.Anything, persistence.GitHubRepositoryIndexKey("R_1")).Return(nil, errors.New("connection refused"))

	runner := &mockRunner{}

	d, err := New(integration.NewResolver(store), trigger.NewRepository(store), runner, slog.Default())
	require.NoError(t, err)

	d.Dispatch(context.Background(), labeledDelivery(t, "bug"))

	store.AssertExpectations(t)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnqueue_Wait(t *testing.T) {
	s := newStores(t)
	s.register(t, s.current, labeled("a", "bug"))

	runner := &mockRunner{}
	runner.On("Run", mock.Anything, "a", mock.Anything).Return(nil).Twice()

	d := newDispatcher(t, s, runner)

	ctx, cancel := context.WithCancel(context.Background())
	d.Enqueue(ctx, labeledDelivery(t, "bug"))
	d.Enqueue(ctx, labeledDelivery(t, "bug"))
	cancel()
	d.Wait()

	runner.AssertExpectations(t)
}

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) TriggerIDs(ctx context.Context, repositoryNodeID string) ([]string, error) {
	args := m.Called(ctx, repositoryNodeID)

	return args.Get(0).([]string), args.Error(1)
}
