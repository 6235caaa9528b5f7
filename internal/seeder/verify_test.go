package seeder

import (
	"context"
	"testing"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedOrphans map[string]int64

func (f fixedOrphans) CountOrphans(_ context.Context, e *schema.Entity, column string, _ *schema.Entity) (int64, error) {
	return f[e.Name+"."+column], nil
}

func TestVerifyPopulatedStore(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)
	_, err := sd.Populate(ctx, DefaultPlan())
	require.NoError(t, err)

	report, err := Verify(ctx, s, st)
	require.NoError(t, err)
	assert.True(t, report.OK())

	relations := 0
	for _, e := range s.Entities() {
		relations += len(e.Relations)
	}
	assert.Len(t, report.Findings, relations)
}

func TestVerifyReportsOrphans(t *testing.T) {
	s := schema.BotPlatform()

	report, err := Verify(context.Background(), s, fixedOrphans{"Message.conversation_id": 3})
	require.NoError(t, err)
	assert.False(t, report.OK())

	var found bool
	for _, f := range report.Findings {
		if f.Entity == schema.Message {
			found = true
			assert.Equal(t, int64(3), f.Orphans)
			assert.Equal(t, schema.Conversation, f.Target)
		}
	}
	assert.True(t, found)
}
