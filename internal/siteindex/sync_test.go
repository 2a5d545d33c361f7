package siteindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/blogsearch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	pages []*models.Page
	err   error
	calls int
}

func (r *recordingTarget) Load(_ context.Context, pages []*models.Page) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.pages = pages
	return nil
}

func TestSyncer_Sync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"A","body":"<p>one</p>"},{"title":"B","body":"two"}]`), 0600))
	loader, err := NewLoader(path, "html")
	require.NoError(t, err)

	target := &recordingTarget{}
	s := NewSyncer(loader, target, nil)
	n, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, target.pages, 2)
	assert.Equal(t, path, s.Source())
	assert.NoError(t, s.LastError())
}

func TestSyncer_LoadFailureKeepsTarget(t *testing.T) {
	loader, err := NewLoader(filepath.Join(t.TempDir(), "missing.json"), "")
	require.NoError(t, err)

	target := &recordingTarget{}
	s := NewSyncer(loader, target, nil)
	_, err = s.Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, target.calls)
	assert.Error(t, s.LastError())
}

func TestSyncer_TargetError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0600))
	loader, err := NewLoader(path, "text")
	require.NoError(t, err)

	boom := errors.New("boom")
	s := NewSyncer(loader, &recordingTarget{err: boom}, nil)
	_, err = s.Sync(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSyncer_LastSyncSurvivesFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"A","body":"one"}]`), 0600))
	loader, err := NewLoader(path, "text")
	require.NoError(t, err)

	s := NewSyncer(loader, &recordingTarget{}, nil)
	assert.True(t, s.LastSync().IsZero())

	_, err = s.Sync(context.Background())
	require.NoError(t, err)
	synced := s.LastSync()
	assert.False(t, synced.IsZero())

	require.NoError(t, os.WriteFile(path, []byte(`[{"title":`), 0600))
	_, err = s.Sync(context.Background())
	require.Error(t, err)
	assert.Error(t, s.LastError())
	assert.Equal(t, synced, s.LastSync())
}
