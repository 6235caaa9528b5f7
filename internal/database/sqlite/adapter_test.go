package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var order = []string{
	schema.User, schema.Integration, schema.Segment, schema.ContactSource, schema.Contact,
	schema.BotScript, schema.Messenger, schema.Conversation, schema.Message, schema.Task,
}

func connect(t *testing.T) *Adapter {
	t.Helper()
	a := New()
	url := "sqlite://" + filepath.Join(t.TempDir(), "bots.db")
	require.NoError(t, a.Connect(context.Background(), url))
	t.Cleanup(func() { a.Close() })
	return a
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	a := connect(t)
	s := schema.BotPlatform()

	require.NoError(t, a.EnsureSchema(ctx, s, order))
	require.NoError(t, a.EnsureSchema(ctx, s, order))

	for _, e := range s.Entities() {
		n, err := a.Count(ctx, e)
		require.NoError(t, err)
		assert.Zero(t, n, e.Name)
	}
}

func TestRegisterAndReferencing(t *testing.T) {
	ctx := context.Background()
	a := connect(t)
	s := schema.BotPlatform()
	require.NoError(t, a.EnsureSchema(ctx, s, order))

	now := time.Now().UTC().Truncate(time.Second)
	integration, _ := s.Entity(schema.Integration)
	source, _ := s.Entity(schema.ContactSource)

	crmID, err := a.Register(ctx, integration, schema.Values{
		"name": "AmoCRM", "type": schema.IntegrationCRM, "settings": "{}",
		"is_active": true, "created_at": now, "updated_at": now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), crmID)

	for _, name := range []string{"AmoCRM", "Bitrix24"} {
		_, err := a.Register(ctx, source, schema.Values{
			"integration_id": crmID, "name": name, "created_at": now, "updated_at": now,
		})
		require.NoError(t, err)
	}
	_, err = a.Register(ctx, source, schema.Values{
		"integration_id": nil, "name": "Manual upload", "created_at": now, "updated_at": now,
	})
	require.NoError(t, err)

	ids, err := a.Referencing(ctx, source, "integration_id", crmID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	n, err := a.Count(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	orphans, err := a.CountOrphans(ctx, source, "integration_id", integration)
	require.NoError(t, err)
	assert.Zero(t, orphans)
}

func TestRegisterRejectsDanglingReference(t *testing.T) {
	ctx := context.Background()
	a := connect(t)
	s := schema.BotPlatform()
	require.NoError(t, a.EnsureSchema(ctx, s, order))

	now := time.Now().UTC()
	msg, _ := s.Entity(schema.Message)
	_, err := a.Register(ctx, msg, schema.Values{
		"conversation_id": int64(42), "sender": schema.SenderBot, "message_text": "hi",
		"timestamp": now, "is_ai_generated": true,
	})
	assert.Error(t, err)
}

func TestReferencingRejectsUnknownColumn(t *testing.T) {
	a := connect(t)
	s := schema.BotPlatform()
	msg, _ := s.Entity(schema.Message)

	_, err := a.Referencing(context.Background(), msg, "owner_id", 1)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	a := connect(t)
	s := schema.BotPlatform()
	require.NoError(t, a.EnsureSchema(ctx, s, order))

	now := time.Now().UTC().Truncate(time.Second)
	integration, _ := s.Entity(schema.Integration)
	id, err := a.Register(ctx, integration, schema.Values{
		"name": "ChatApp", "type": schema.IntegrationMessenger, "settings": "{}",
		"is_active": true, "created_at": now, "updated_at": now,
	})
	require.NoError(t, err)

	v, found, err := a.Lookup(ctx, integration, id, []string{"type", "name"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, schema.Values{"type": schema.IntegrationMessenger, "name": "ChatApp"}, v)

	_, found, err = a.Lookup(ctx, integration, id+10, []string{"type"})
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = a.Lookup(ctx, integration, id, []string{"owner"})
	assert.Error(t, err)
}
