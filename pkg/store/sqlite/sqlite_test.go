package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nnerrors "github.com/otherjamesbrown/netnotes-cli/pkg/errors"
	"github.com/otherjamesbrown/netnotes-cli/pkg/people"
	"github.com/otherjamesbrown/netnotes-cli/pkg/store/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) people.Store {
		s, err := Open(context.Background(), MemoryPath)
		require.NoError(t, err)
		return s
	})
}

func TestNoteRequiresOwner(t *testing.T) {
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer s.Close()

	err = s.CreateNote(context.Background(), &people.Note{ID: "n1", PersonID: "ghost", Content: "x", CreatedAt: time.Now()})
	assert.True(t, nnerrors.IsNotFound(err), "got %v", err)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "netnotes.db")
	at := time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.CreatePerson(ctx, &people.Person{ID: "p1", Name: "Alex", Importance: 3, CreatedAt: at, UpdatedAt: at}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.FindPersonByName(ctx, "alex")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, at.Equal(p.CreatedAt))
}
