package seeder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rana718/botseed/internal/database/memory"
	"github.com/Rana718/botseed/internal/schema"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func newStore(t *testing.T, s *schema.Schema) *memory.Store {
	t.Helper()
	st := memory.New()
	order, err := GraphFromSchema(s).BuildInsertionOrder()
	require.NoError(t, err)
	require.NoError(t, st.EnsureSchema(context.Background(), s, order))
	return st
}

func newProvider(t *testing.T) *FakeProvider {
	t.Helper()
	p, err := NewFakeProvider("en", 42)
	require.NoError(t, err)
	return p
}

func newTestFactory(t *testing.T) (*Factory, *memory.Store, *schema.Schema) {
	t.Helper()
	s := schema.BotPlatform()
	st := newStore(t, s)
	return NewFactory(s, st, newProvider(t), WithClock(testClock)), st, s
}

func newTestSeeder(t *testing.T, opts ...Option) (*Seeder, *memory.Store, *schema.Schema) {
	t.Helper()
	s := schema.BotPlatform()
	st := memory.New()
	opts = append([]Option{WithQuiet(), WithFactoryOptions(WithClock(testClock))}, opts...)
	sd := New(s, st, newProvider(t), opts...)
	require.NoError(t, sd.Prepare(context.Background()))
	return sd, st, s
}

func entity(t *testing.T, s *schema.Schema, name string) *schema.Entity {
	t.Helper()
	e, ok := s.Entity(name)
	require.True(t, ok, name)
	return e
}

// failingProvider fails every call for one kind of value.
type failingProvider struct {
	*FakeProvider
	text bool
}

func (p failingProvider) RandomText(hint string) (string, error) {
	if p.text {
		return "", &ValueProviderError{Hint: hint, Err: errors.New("generator offline")}
	}
	return p.FakeProvider.RandomText(hint)
}
