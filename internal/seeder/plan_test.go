package seeder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Rana718/botseed/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
steps:
  - entity: User
    count: 2
  - entity: Integration
    count: 1
    overrides:
      type: CRM
  - entity: Conversation
    count: 2
    children:
      - entity: Message
        per_parent: 3
        overrides:
          sender: bot
`

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(samplePlan))
	require.NoError(t, err)
	require.Len(t, plan.Steps, 3)

	assert.Equal(t, schema.IntegrationCRM, plan.Steps[1].Overrides["type"])
	require.Len(t, plan.Steps[2].Children, 1)
	assert.Equal(t, 3, plan.Steps[2].Children[0].PerParent)
	assert.Equal(t, map[string]int{
		schema.User:         2,
		schema.Integration:  1,
		schema.Conversation: 2,
		schema.Message:      6,
	}, plan.Counts())
}

func TestParsePlanRelationOverrideIDs(t *testing.T) {
	plan, err := ParsePlan([]byte(`
steps:
  - entity: Task
    count: 2
    overrides:
      user_id: 1
  - entity: Conversation
    count: 1
    children:
      - entity: Message
        per_parent: 1
        overrides:
          conversation_id: 3
`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), plan.Steps[0].Overrides["user_id"])
	assert.Equal(t, int64(3), plan.Steps[1].Children[0].Overrides["conversation_id"])
}

func TestParsePlanRejectsEmpty(t *testing.T) {
	_, err := ParsePlan([]byte("steps: []"))
	assert.Error(t, err)

	_, err = ParsePlan([]byte("steps: [this is not"))
	assert.Error(t, err)
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Len(t, plan.Steps, 3)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultPlanCounts(t *testing.T) {
	assert.Equal(t, map[string]int{
		schema.User:          5,
		schema.Integration:   4,
		schema.Segment:       3,
		schema.ContactSource: 3,
		schema.Contact:       20,
		schema.BotScript:     2,
		schema.Messenger:     3,
		schema.Conversation:  15,
		schema.Message:       150,
		schema.Task:          10,
	}, DefaultPlan().Counts())
}

func TestPlanClosed(t *testing.T) {
	plan := Plan{Steps: []Step{
		{Entity: schema.Integration, Count: 0},
		{Entity: schema.User, Count: 0},
		{Entity: schema.User, Count: 1},
		{Entity: schema.Conversation, Count: 0, Children: []Nested{{Entity: schema.Message, PerParent: 4}}},
	}}
	assert.Equal(t, []string{schema.Integration, schema.Conversation}, plan.closed())
}

func TestPlanValidate(t *testing.T) {
	s := schema.BotPlatform()
	order, err := GraphFromSchema(s).BuildInsertionOrder()
	require.NoError(t, err)

	tests := []struct {
		name string
		plan Plan
	}{
		{"unknown entity", Plan{Steps: []Step{{Entity: "Invoice", Count: 1}}}},
		{"negative count", Plan{Steps: []Step{{Entity: schema.User, Count: -1}}}},
		{"unknown override", Plan{Steps: []Step{{Entity: schema.User, Count: 1, Overrides: schema.Values{"age": 3}}}}},
		{"child before parent", Plan{Steps: []Step{{Entity: schema.Message, Count: 1, Children: []Nested{{Entity: schema.Conversation, PerParent: 1}}}}}},
		{"no relation", Plan{Steps: []Step{{Entity: schema.User, Count: 1, Children: []Nested{{Entity: schema.Message, PerParent: 1}}}}}},
		{"wrong column", Plan{Steps: []Step{{Entity: schema.Integration, Count: 1, Children: []Nested{{Entity: schema.Task, PerParent: 1, Column: "user_id"}}}}}},
		{"parent column overridden", Plan{Steps: []Step{{Entity: schema.Conversation, Count: 1, Children: []Nested{{Entity: schema.Message, PerParent: 1, Overrides: schema.Values{"conversation_id": int64(9)}}}}}}},
		{"enum override outside values", Plan{Steps: []Step{{Entity: schema.Integration, Count: 1, Overrides: schema.Values{"type": "ERP"}}}}},
		{"derived override", Plan{Steps: []Step{{Entity: schema.Conversation, Count: 1, Children: []Nested{{Entity: schema.Message, PerParent: 1, Overrides: schema.Values{"is_ai_generated": false}}}}}}},
		{"negative per parent", Plan{Steps: []Step{{Entity: schema.Conversation, Count: 1, Children: []Nested{{Entity: schema.Message, PerParent: -2}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.validate(s, order)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSchemaValidation)

			var perr *PlanError
			assert.ErrorAs(t, err, &perr)
		})
	}

	assert.NoError(t, DefaultPlan().validate(s, order))
}

func TestChildColumn(t *testing.T) {
	s := schema.BotPlatform()

	col, err := childColumn(s, schema.Conversation, Nested{Entity: schema.Message})
	require.NoError(t, err)
	assert.Equal(t, "conversation_id", col)

	col, err = childColumn(s, schema.Integration, Nested{Entity: schema.Task, Column: "crm_id"})
	require.NoError(t, err)
	assert.Equal(t, "crm_id", col)
}
