package candidates

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/shared/storage/object"
	"recruit-assistant/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) (*Service, *local.Store) {
	t.Helper()
	store := local.New(t.TempDir())
	return NewService(store, NewMemoryRepo()), store
}

func TestUploadExtractsAndCleansText(t *testing.T) {
	svc, store := newTestService(t)

	c, err := svc.Upload(context.Background(), "resume.pdf", strings.NewReader("张三\n\n  Go   开发\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, "resume.pdf", c.FileName)
	assert.Equal(t, "张三 Go 开发", c.ResumeContent)
	assert.Len(t, c.FileHash, 64)
	assert.Equal(t, int64(len("张三\n\n  Go   开发\n")), c.SizeBytes)
	assert.Nil(t, c.Profile)

	body, err := store.Open(context.Background(), c.StorageKey)
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "张三\n\n  Go   开发\n", string(raw))
}

func TestUploadKeepsFileWhenExtractionFails(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Extract = func(context.Context, []byte, string, string) (string, error) {
		return "", errors.New("corrupt document")
	}

	c, err := svc.Upload(context.Background(), "resume.docx", strings.NewReader("not a docx"))
	require.NoError(t, err)
	assert.Equal(t, "", c.ResumeContent)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.StorageKey, got.StorageKey)
}

func TestUploadValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := map[string]struct {
		name string
		body string
	}{
		"missing name":   {name: "", body: "x"},
		"bad extension":  {name: "resume.exe", body: "x"},
		"no extension":   {name: "resume", body: "x"},
		"empty file":     {name: "resume.pdf", body: ""},
		"traversal name": {name: "../resume.pdf", body: "x"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tc.name, strings.NewReader(tc.body))
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUploadAcceptsUppercaseExtension(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Upload(context.Background(), "RESUME.DOC", strings.NewReader("legacy"))
	assert.NoError(t, err)
}

func TestOpenAndDelete(t *testing.T) {
	svc, store := newTestService(t)
	c, err := svc.Upload(context.Background(), "cv.pdf", strings.NewReader("resume text"))
	require.NoError(t, err)

	got, body, err := svc.Open(context.Background(), c.ID)
	require.NoError(t, err)
	raw, _ := io.ReadAll(body)
	body.Close()
	assert.Equal(t, "resume text", string(raw))
	assert.Equal(t, c.ID, got.ID)

	require.NoError(t, svc.Delete(context.Background(), c.ID))
	_, err = svc.Get(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Open(context.Background(), c.StorageKey)
	assert.ErrorIs(t, err, object.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), c.ID), ErrNotFound)
}

func TestOpenMissingStoredFile(t *testing.T) {
	svc, store := newTestService(t)
	c, err := svc.Upload(context.Background(), "cv.pdf", strings.NewReader("resume text"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), c.StorageKey))

	_, _, err = svc.Open(context.Background(), c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRejectsNonPositiveID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProfile(t *testing.T) {
	svc, _ := newTestService(t)
	c, err := svc.Upload(context.Background(), "cv.pdf", strings.NewReader("resume text"))
	require.NoError(t, err)

	p := pipeline.EmptyResumeProfile()
	p.Name = "张三"
	p.Skills = []string{"Go"}
	require.NoError(t, svc.SaveProfile(context.Background(), c.ID, p))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, p, *got.Profile)

	assert.ErrorIs(t, svc.SaveProfile(context.Background(), 99, p), ErrNotFound)
}
