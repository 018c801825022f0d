package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labeledIssue = `{
	"action": "labeled",
	"issue": {"id": 1, "node_id": "I_42", "number": 42, "title": "Crash"},
	"label": {"name": "bug"},
	"repository": {"node_id": "R_1", "name": "app", "full_name": "acme/app", "owner": {"login": "acme"}},
	"installation": {"id": 7}
}`

func TestParse(t *testing.T) {
	ev, err := Parse("issues", "delivery-1", []byte(labeledIssue))
	require.NoError(t, err)

	assert.Equal(t, IssuesLabeled, ev.Name)
	assert.Equal(t, "delivery-1", ev.DeliveryID)
	assert.Equal(t, "R_1", ev.RepositoryNodeID())
	assert.Equal(t, 42, ev.Data.Issue.Number)
	assert.Nil(t, ev.Data.Issue.PullRequest)
	assert.Equal(t, "bug", ev.Data.Label.Name)
	assert.True(t, ev.Is(IssuesOpened, IssuesLabeled))
	assert.False(t, ev.Is(IssuesOpened))
}

func TestParse_InvalidPayload(t *testing.T) {
	_, err := Parse("issues", "delivery-1", []byte(`not json`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWebhookEvent_JSONRestoresData(t *testing.T) {
	ev, err := Parse("issues", "delivery-1", []byte(labeledIssue))
	require.NoError(t, err)

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded WebhookEvent
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, ev.Name, decoded.Name)
	assert.Equal(t, ev.DeliveryID, decoded.DeliveryID)
	require.NotNil(t, decoded.Data)
	assert.Equal(t, ev.Data, decoded.Data)
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported(DiscussionCommentCreated))
	assert.False(t, IsSupported("issues.edited"))
	assert.False(t, IsSupported("installation.created"))
	assert.Equal(t, Name("ping"), NameFor("ping", ""))
}
