package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueRunsRegisteredJobs(t *testing.T) {
	registry := NewJobRegistry()
	var ran atomic.Int32
	var got atomic.Value
	registry.Register("ping", func(_ context.Context, payload json.RawMessage) error {
		var body map[string]string
		if err := json.Unmarshal(payload, &body); err != nil {
			return err
		}
		got.Store(body["msg"])
		ran.Add(1)
		return nil
	})
	registry.Register("boom", func(context.Context, json.RawMessage) error {
		panic("boom")
	})
	registry.Register("fail", func(context.Context, json.RawMessage) error {
		return errors.New("fail")
	})

	queue := NewMemoryQueue(registry, 8)
	queue.Start(2)

	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "boom", nil))
	require.NoError(t, queue.Enqueue(ctx, "fail", nil))
	require.NoError(t, queue.Enqueue(ctx, "unknown", nil))
	require.NoError(t, queue.Enqueue(ctx, "ping", map[string]string{"msg": "hello"}))
	queue.Stop()

	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, "hello", got.Load())
	assert.ErrorIs(t, queue.Enqueue(ctx, "ping", nil), ErrQueueStopped)
}

func TestMemoryQueueFull(t *testing.T) {
	queue := NewMemoryQueue(NewJobRegistry(), 1)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, "a", nil))
	assert.ErrorIs(t, queue.Enqueue(ctx, "b", nil), ErrQueueFull)
	queue.Start(1)
	queue.Stop()
}

func TestRegistryDispatchUnknown(t *testing.T) {
	err := NewJobRegistry().Dispatch(context.Background(), jobEnvelope{Name: "nope"})
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestMediaJanitorRemovesOrphans(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	media := NewMediaStore(t.TempDir())
	posts := repositories.NewBlogPostRepository(db)
	users := repositories.NewUserRepository(db)

	kept, err := media.Save(MediaAreaBlog, "post", 1, &Upload{Filename: "a.png", Data: pngHeader})
	require.NoError(t, err)
	orphan, err := media.Save(MediaAreaBlog, "post", 2, &Upload{Filename: "b.png", Data: pngHeader})
	require.NoError(t, err)
	fresh, err := media.Save(MediaAreaBlog, "post", 3, &Upload{Filename: "c.png", Data: pngHeader})
	require.NoError(t, err)
	require.NoError(t, posts.Create(ctx, &models.BlogPost{Title: "t", Content: "c", Image: kept}))

	old := time.Now().Add(-2 * MediaGracePeriod)
	for _, rel := range []string{kept, orphan} {
		require.NoError(t, os.Chtimes(filepath.Join(media.Root(), filepath.FromSlash(rel)), old, old))
	}

	removed, err := NewMediaJanitor(media, posts, users).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.True(t, media.Exists(kept))
	assert.False(t, media.Exists(orphan))
	// Not yet referenced, but written too recently to be an orphan.
	assert.True(t, media.Exists(fresh))
}

func TestMediaSweepMissingRoot(t *testing.T) {
	media := NewMediaStore(filepath.Join(t.TempDir(), "absent"))
	removed, err := media.SweepOrphans(nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestMediaRemoveStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "keep-"+filepath.Base(root))
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	media := NewMediaStore(root)
	require.NoError(t, media.Remove("../"+filepath.Base(outside)))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestReadUploadLimit(t *testing.T) {
	big := make([]byte, MaxUploadSize+1)
	_, err := ReadUpload("big.png", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	up, err := ReadUpload("small.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "small.png", up.Filename)
}
