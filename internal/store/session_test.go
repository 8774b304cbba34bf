package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateAndEnd(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{ID: "sess-1", Device: "0"}
	require.NoError(t, repo.Create(sess))
	require.False(t, sess.StartedAt.IsZero())

	got, err := repo.GetByID("sess-1")
	require.NoError(t, err)
	require.Equal(t, "0", got.Device)
	require.Nil(t, got.StoppedAt)
	require.Empty(t, got.StopReason)

	stopped := sess.StartedAt.Add(5 * time.Second)
	require.NoError(t, repo.End("sess-1", stopped, "capture failed"))

	got, err = repo.GetByID("sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.StoppedAt)
	require.True(t, got.StoppedAt.Equal(stopped), "stopped_at = %v, want %v", got.StoppedAt, stopped)
	require.Equal(t, "capture failed", got.StopReason)
}

func TestSessionRepository_EndTwice(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()
	require.NoError(t, repo.Create(&Session{ID: "sess-1", Device: "0"}))

	require.NoError(t, repo.End("sess-1", time.Now(), ""))
	err := repo.End("sess-1", time.Now(), "late")

	require.True(t, errors.Is(err, ErrNotFound))
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID("missing")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(&Session{ID: id, Device: "0", StartedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	list, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c", list[0].ID)
	require.Equal(t, "b", list[1].ID)
}
