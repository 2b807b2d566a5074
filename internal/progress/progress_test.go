// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

package progress_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iqralabs/iqra/internal/progress"
)

/*
TestBookProgress_MarkPageRead verifies that only the first read of a page
reports as creditable and that re-reads never do.
*/
func TestBookProgress_MarkPageRead(t *testing.T) {
	p := progress.NewBookProgress()

	assert.True(t, p.MarkPageRead(1), "first read of page 1 must credit")
	assert.False(t, p.MarkPageRead(1), "second read of page 1 must not credit")

	assert.True(t, p.MarkPageRead(2))
	assert.True(t, p.MarkPageRead(5))
	assert.False(t, p.MarkPageRead(2), "backtracking to a read page must not credit")

	assert.Equal(t, 3, p.PagesRead())
	assert.True(t, p.IsPageRead(5))
	assert.False(t, p.IsPageRead(3))
}

/*
TestBookProgress_HighWaterMark checks that MaxPageReached only moves forward.
*/
func TestBookProgress_HighWaterMark(t *testing.T) {
	p := progress.NewBookProgress()

	p.MarkPageRead(1)
	p.MarkPageRead(2)
	p.MarkPageRead(7)
	assert.Equal(t, 7, p.MaxPageReached)

	// Going back does not lower the mark.
	p.MarkPageRead(3)
	assert.Equal(t, 7, p.MaxPageReached)
}

/*
TestBookProgress_MarkQuizCompleted verifies the first resolution is final.
*/
func TestBookProgress_MarkQuizCompleted(t *testing.T) {
	p := progress.NewBookProgress()

	assert.True(t, p.MarkQuizCompleted(10))
	assert.False(t, p.MarkQuizCompleted(10), "re-answering the same quiz must not credit")
	assert.True(t, p.IsQuizCompleted(10))
	assert.False(t, p.IsQuizCompleted(20))
}

/*
TestBookProgress_MergeFrom checks max-wins merging on the counters while the
resume position stays with the record being saved.
*/
func TestBookProgress_MergeFrom(t *testing.T) {
	local := progress.NewBookProgress()
	local.MarkPageRead(1)
	local.MarkPageRead(2)
	local.CurrentPage = 2

	remote := progress.NewBookProgress()
	remote.MarkPageRead(2)
	remote.MarkPageRead(3)
	remote.MarkPageRead(8)
	remote.MarkQuizCompleted(3)
	remote.CurrentPage = 8

	local.MergeFrom(remote)

	assert.Equal(t, 2, local.CurrentPage, "the resume position follows the saving record, not the stored one")
	assert.Equal(t, 8, local.MaxPageReached)
	assert.Equal(t, []int{1, 2, 3, 8}, local.ReadPages, "read pages merge as a sorted union")
	assert.True(t, local.IsQuizCompleted(3))

	// Merging a lesser record never shrinks the counters.
	stale := progress.NewBookProgress()
	stale.CurrentPage = 1
	local.MergeFrom(stale)
	assert.Equal(t, 2, local.CurrentPage)
	assert.Equal(t, 8, local.MaxPageReached)
	assert.Equal(t, 4, local.PagesRead())
}

// serializedBlobStore round-trips every blob through JSON, the way the Redis
// store does, so tests see stored state rather than shared pointers.
type serializedBlobStore struct {
	raw map[string][]byte
}

func newSerializedBlobStore() *serializedBlobStore {
	return &serializedBlobStore{raw: make(map[string][]byte)}
}

func (store *serializedBlobStore) Load(_ context.Context, subjectID string) (progress.Blob, error) {
	raw, ok := store.raw[subjectID]
	if !ok {
		return progress.Blob{}, nil
	}
	return progress.DecodeBlob(raw)
}

func (store *serializedBlobStore) Save(_ context.Context, subjectID string, blob progress.Blob) error {
	raw, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	store.raw[subjectID] = raw
	return nil
}

// nullMirror satisfies MirrorRepository without recording anything.
type nullMirror struct{}

func (nullMirror) Upsert(context.Context, *progress.MirrorRow) error { return nil }

func (nullMirror) ListByUser(context.Context, string) ([]*progress.MirrorRow, error) {
	return nil, nil
}

/*
TestService_PutKeepsResumePosition saves progress at page 5, navigates back
to page 3 and saves again, and checks the reload resumes at 3 while the read
history keeps every page.
*/
func TestService_PutKeepsResumePosition(t *testing.T) {
	service := progress.NewService(newSerializedBlobStore(), nullMirror{})
	ctx := context.Background()

	record := progress.NewBookProgress()
	for page := 1; page <= 5; page++ {
		record.MarkPageRead(page)
	}
	record.CurrentPage = 5
	require.NoError(t, service.Put(ctx, "user-1", "book-1", record))

	reloaded, err := service.Get(ctx, "user-1", "book-1")
	require.NoError(t, err)
	reloaded.CurrentPage = 3
	require.NoError(t, service.Put(ctx, "user-1", "book-1", reloaded))

	resumed, err := service.Get(ctx, "user-1", "book-1")
	require.NoError(t, err)
	assert.Equal(t, 3, resumed.CurrentPage, "backward navigation moves the resume position")
	assert.Equal(t, 5, resumed.MaxPageReached)
	assert.Equal(t, 5, resumed.PagesRead())
}

/*
TestDecodeBlob covers round-tripping and the corrupt-blob contract.
*/
func TestDecodeBlob(t *testing.T) {
	t.Run("valid_blob", func(t *testing.T) {
		raw := []byte(`{"book-1":{"current_page":4,"max_page_reached":4,"read_pages":[1,2,3,4],"completed_quizzes":[3]}}`)

		blob, err := progress.DecodeBlob(raw)
		require.NoError(t, err)
		require.Contains(t, blob, "book-1")

		record := blob["book-1"]
		assert.Equal(t, 4, record.CurrentPage)
		assert.Equal(t, 4, record.PagesRead())
		assert.True(t, record.IsQuizCompleted(3))
	})

	t.Run("corrupt_blob", func(t *testing.T) {
		_, err := progress.DecodeBlob([]byte(`{"book-1": not-json`))
		require.Error(t, err)
	})

	t.Run("null_blob_decodes_empty", func(t *testing.T) {
		blob, err := progress.DecodeBlob([]byte(`null`))
		require.NoError(t, err)
		assert.Empty(t, blob)
	})
}
