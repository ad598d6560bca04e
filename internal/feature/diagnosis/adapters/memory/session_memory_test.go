package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mri_diagnosis/internal/feature/diagnosis/domain/entity"
	"mri_diagnosis/internal/feature/diagnosis/usecase"
)

func TestSessionMemory_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewSessionMemory(time.Hour)
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := entity.NewSession("s-1", now)
	s.Image = &entity.ImageAsset{Filename: "a.png", Data: []byte("bytes")}
	require.NoError(t, store.Create(ctx, s))
	assert.Error(t, store.Create(ctx, s))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got.Image.Data)
	assert.Equal(t, []byte("bytes"), s.Image.Data, "caller's asset must not be modified")

	// 取得した値を変更しても保存内容には影響しない
	got.Phase = entity.PhaseFailed
	again, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PhaseIdle, again.Phase)

	got.Phase = entity.PhasePreviewing
	require.NoError(t, store.Save(ctx, got))
	again, err = store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, entity.PhasePreviewing, again.Phase)

	require.NoError(t, store.Delete(ctx, "s-1"))
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
	assert.ErrorIs(t, store.Save(ctx, got), usecase.ErrSessionNotFound)
}

func TestSessionMemory_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewSessionMemory(time.Hour)
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, entity.NewSession("s-1", now)))
	require.NoError(t, store.Create(ctx, entity.NewSession("s-2", now)))

	now = now.Add(30 * time.Minute)
	s2, err := store.Get(ctx, "s-2")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, s2))

	now = now.Add(45 * time.Minute)
	_, err = store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
	_, err = store.Get(ctx, "s-2")
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}
