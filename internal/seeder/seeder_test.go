package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulateDefaultPlan(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	summary, err := sd.Populate(ctx, DefaultPlan())
	require.NoError(t, err)

	for name, want := range DefaultPlan().Counts() {
		n, err := st.Count(ctx, entity(t, s, name))
		require.NoError(t, err)
		assert.Equal(t, int64(want), n, name)
		assert.Equal(t, want, summary.Count(name), name)
	}
	assert.Equal(t, 215, summary.Total())
	assert.Equal(t, s.Names(), summary.Order)
}

func TestPopulateInsertsInDependencyOrder(t *testing.T) {
	sd, st, _ := newTestSeeder(t)

	summary, err := sd.Populate(context.Background(), DefaultPlan())
	require.NoError(t, err)

	position := make(map[string]int)
	for i, name := range summary.Order {
		position[name] = i
	}
	last := 0
	for _, ins := range st.Log() {
		assert.GreaterOrEqual(t, position[ins.Entity], last, "%s %d", ins.Entity, ins.ID)
		last = position[ins.Entity]
	}
}

func TestPopulateNestedChildrenBelongToOneParent(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	summary, err := sd.Populate(ctx, DefaultPlan())
	require.NoError(t, err)

	msg := entity(t, s, schema.Message)
	seen := make(map[int64]bool)
	for _, convID := range summary.Created[schema.Conversation] {
		ids, err := st.Referencing(ctx, msg, "conversation_id", convID)
		require.NoError(t, err)
		assert.Len(t, ids, 10)
		for _, id := range ids {
			assert.False(t, seen[id], "message %d has two parents", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 150)
}

func TestPopulateIsAdditive(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	first, err := sd.Populate(ctx, DefaultPlan())
	require.NoError(t, err)
	second, err := sd.Populate(ctx, DefaultPlan())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	for name, ids := range first.Created {
		assert.NotContains(t, second.Created[name], ids[0], name)
		n, err := st.Count(ctx, entity(t, s, name))
		require.NoError(t, err)
		assert.Equal(t, int64(2*len(ids)), n, name)
	}

	// second-run relations point at second-run parents only
	conv := entity(t, s, schema.Conversation)
	for _, id := range second.Created[schema.Conversation] {
		row, ok := st.Get(conv, id)
		require.True(t, ok)
		assert.Contains(t, second.Created[schema.Contact], row.Values["contact_id"])
	}
}

func TestPopulateTaskReferencesManagerAndCRM(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	plan := Plan{Steps: []Step{
		{Entity: schema.User, Count: 2},
		{Entity: schema.Integration, Count: 1, Overrides: schema.Values{"type": schema.IntegrationCRM}},
		{Entity: schema.Integration, Count: 1, Overrides: schema.Values{"type": schema.IntegrationMessenger}},
		{Entity: schema.Contact, Count: 1},
		{Entity: schema.Task, Count: 3},
	}}
	summary, err := sd.Populate(ctx, plan)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Count(schema.Task))

	users := entity(t, s, schema.User)
	integrations := entity(t, s, schema.Integration)
	tasks := entity(t, s, schema.Task)
	for _, id := range summary.Created[schema.Task] {
		task, _ := st.Get(tasks, id)

		user, ok := st.Get(users, task.Values["user_id"].(int64))
		require.True(t, ok)
		assert.Equal(t, "manager", user.Values["role"])

		crm, ok := st.Get(integrations, task.Values["crm_id"].(int64))
		require.True(t, ok)
		assert.Equal(t, schema.IntegrationCRM, crm.Values["type"])
	}
	assert.Equal(t, 2, summary.Count(schema.User))
	assert.Equal(t, 2, summary.Count(schema.Integration))
}

func TestPopulateContactSourceCreatesMissingCRM(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	plan := Plan{Steps: []Step{
		{Entity: schema.Integration, Count: 1, Overrides: schema.Values{"type": schema.IntegrationMessenger}},
		{Entity: schema.ContactSource, Count: 2},
	}}
	summary, err := sd.Populate(ctx, plan)
	require.NoError(t, err)

	integrations := entity(t, s, schema.Integration)
	sources := entity(t, s, schema.ContactSource)
	for _, id := range summary.Created[schema.ContactSource] {
		src, _ := st.Get(sources, id)
		crm, ok := st.Get(integrations, src.Values["integration_id"].(int64))
		require.True(t, ok)
		assert.Equal(t, schema.IntegrationCRM, crm.Values["type"])
	}
	assert.Equal(t, 2, summary.Count(schema.Integration))
}

func TestPopulateUnsatisfiableTask(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	plan := Plan{Steps: []Step{
		{Entity: schema.User, Count: 1},
		{Entity: schema.Integration, Count: 0},
		{Entity: schema.Contact, Count: 1},
		{Entity: schema.Task, Count: 1},
	}}
	summary, err := sd.Populate(ctx, plan)
	require.Error(t, err)

	var unsat *UnsatisfiableRelationError
	require.True(t, errors.As(err, &unsat))
	assert.Equal(t, "crm_id", unsat.Column)

	require.NotNil(t, summary)
	assert.Zero(t, summary.Count(schema.Task))
	n, err := st.Count(ctx, entity(t, s, schema.Task))
	require.NoError(t, err)
	assert.Zero(t, n)

	// optional relations to a closed type stay empty
	src := st.Rows(entity(t, s, schema.ContactSource))
	require.Len(t, src, 1)
	assert.Nil(t, src[0].Values["integration_id"])
}

func TestPopulateUnsatisfiableContact(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	plan := Plan{Steps: []Step{
		{Entity: schema.User, Count: 5},
		{Entity: schema.Contact, Count: 0},
		{Entity: schema.Integration, Count: 1, Overrides: schema.Values{"type": schema.IntegrationCRM}},
		{Entity: schema.Task, Count: 10},
	}}
	summary, err := sd.Populate(ctx, plan)
	require.Error(t, err)

	var unsat *UnsatisfiableRelationError
	require.True(t, errors.As(err, &unsat), "got %v", err)
	assert.Equal(t, schema.Task, unsat.Entity)
	assert.Equal(t, "contact_id", unsat.Column)
	assert.Equal(t, schema.Contact, unsat.Target)

	require.NotNil(t, summary)
	assert.Zero(t, summary.Count(schema.Task))
	n, err := st.Count(ctx, entity(t, s, schema.Task))
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = st.Count(ctx, entity(t, s, schema.Contact))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPopulateYAMLRelationOverride(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t)

	plan, err := ParsePlan([]byte(`
steps:
  - entity: User
    count: 2
  - entity: Task
    count: 3
    overrides:
      user_id: 1
`))
	require.NoError(t, err)

	summary, err := sd.Populate(ctx, plan)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Count(schema.Task))

	for _, row := range st.Rows(entity(t, s, schema.Task)) {
		assert.Equal(t, int64(1), row.Values["user_id"])
	}
}

func TestPopulateRejectsInvalidPlanBeforeWriting(t *testing.T) {
	sd, st, _ := newTestSeeder(t)

	_, err := sd.Populate(context.Background(), Plan{Steps: []Step{
		{Entity: schema.User, Count: 3},
		{Entity: "Invoice", Count: 1},
	}})
	assert.ErrorIs(t, err, ErrSchemaValidation)
	assert.Empty(t, st.Log())
}

func TestPopulateRejectsCyclicSchema(t *testing.T) {
	s := schema.New(
		&schema.Entity{Name: "A", Table: "a", Relations: []schema.Relation{{Column: "b_id", Target: "B"}}},
		&schema.Entity{Name: "B", Table: "b", Relations: []schema.Relation{{Column: "a_id", Target: "A"}}},
	)
	sd := New(s, newStore(t, schema.BotPlatform()), newProvider(t), WithQuiet())

	err := sd.Prepare(context.Background())
	var cycle *CyclicDependencyError
	assert.True(t, errors.As(err, &cycle))

	_, err = sd.Populate(context.Background(), Plan{Steps: []Step{{Entity: "A", Count: 1}}})
	assert.ErrorIs(t, err, ErrSchemaValidation)
}

func TestPopulateUniformSelection(t *testing.T) {
	ctx := context.Background()
	sd, st, s := newTestSeeder(t, WithSelection(Uniform), WithSeed(99))

	summary, err := sd.Populate(ctx, DefaultPlan())
	require.NoError(t, err)
	assert.Equal(t, 215, summary.Total())

	report, err := Verify(ctx, s, st)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestPopulateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sd, _, _ := newTestSeeder(t)

	_, err := sd.Populate(ctx, DefaultPlan())
	assert.ErrorIs(t, err, context.Canceled)
}
