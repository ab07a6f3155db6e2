package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/regsplit/internal/manifest"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	assert.Equal(t, h1, ContentHashHex(data))
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", h1)
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHashHex([]byte{}))
}

func TestNewJob(t *testing.T) {
	job := NewJob("job-1", "scan.pdf", []byte("hello world"), Options{DPI: 72})
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, ContentHashHex([]byte("hello world")), job.ContentHash)
	assert.Equal(t, "hello world", string(job.FileData()))
	assert.Equal(t, 72.0, job.Options().DPI)
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", "a.pdf", nil, Options{})

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExtracting, "extracting text"},
		{StatusRendering, "rendering groups"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.Snapshot().UpdatedAt
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		snap := job.Snapshot()
		assert.Equal(t, tr.status, snap.Status)
		assert.Equal(t, tr.phase, snap.Phase)
		assert.True(t, snap.UpdatedAt.After(before), "UpdatedAt must advance after SetStatus(%q)", tr.status)
	}
}

func TestJob_GroupProgress(t *testing.T) {
	job := NewJob("progress", "a.pdf", nil, Options{})
	job.SetTotalGroups(3)
	job.IncrGroupsDone()
	job.IncrGroupsDone()

	assert.Equal(t, JobProgress{TotalGroups: 3, GroupsDone: 2}, job.Snapshot().Progress)
}

func TestJob_CompleteReleasesUpload(t *testing.T) {
	job := NewJob("done", "a.pdf", []byte("%PDF-"), Options{})
	m := manifest.New([]manifest.Record{{RegNo: "RA1"}}, nil)
	job.Complete(m)

	snap := job.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Same(t, m, snap.Result)
	assert.Nil(t, job.FileData(), "upload must be released")
}

func TestJob_FailRecordsKind(t *testing.T) {
	job := NewJob("fail", "a.pdf", []byte("x"), Options{})
	job.Fail(&Error{Kind: KindRasterization, Err: errors.New("page 2")})

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, KindRasterization, snap.ErrorKind)
	assert.NotEmpty(t, snap.Error)
	assert.Nil(t, snap.Result)
	assert.Nil(t, job.FileData())
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	store.Put(&Job{ID: "store-1", UpdatedAt: time.Now()})

	got := store.Get("store-1")
	require.NotNil(t, got)
	assert.Equal(t, "store-1", got.ID)
	assert.Nil(t, store.Get("nonexistent"))
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)
	store.Put(&Job{ID: "old", UpdatedAt: time.Now()})

	time.Sleep(100 * time.Millisecond)

	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})
	store.Cleanup()

	assert.Nil(t, store.Get("old"), "expired job must be removed")
	assert.NotNil(t, store.Get("new"), "fresh job must survive cleanup")
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("job 7: %w", &Error{Kind: KindStorage, Err: errors.New("disk full")})
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{&Error{Kind: KindMalformedInput, Err: errors.New("x")}, KindMalformedInput},
		{wrapped, KindStorage},
		{errors.New("plain"), KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), "KindOf(%v)", tc.err)
	}
}
