package session_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/session"
)

func TestRegistry(t *testing.T) {
	registry := session.NewRegistry(currency.USD)

	id, engine := registry.Open()
	require.NotNil(t, engine)
	assert.Equal(t, 1, registry.Len())

	got, err := registry.Get(id)
	require.NoError(t, err)
	assert.Same(t, engine, got)

	registry.Close(id)
	assert.Zero(t, registry.Len())

	_, err = registry.Get(id)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	// closing twice is fine
	registry.Close(id)
}

func TestRegistry_UnknownSession(t *testing.T) {
	registry := session.NewRegistry(currency.USD)

	_, err := registry.Get(uuid.New())
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	registry := session.NewRegistry(currency.USD)

	id1, engine1 := registry.Open()
	id2, engine2 := registry.Open()

	assert.NotEqual(t, id1, id2)
	assert.NotSame(t, engine1, engine2)
	assert.Equal(t, 2, registry.Len())
}
