package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/homekeep/internal/database"
	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
	"github.com/dukerupert/homekeep/internal/store"
)

type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.delErr != nil {
		return nil, m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *countingRecorder) BackupRun(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

var testS3 = S3Config{Bucket: "test", AccessKey: "key", SecretKey: "secret", Region: "us-east-1"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	m        *Manager
	db       *sql.DB
	s3       *mockS3Client
	recorder *countingRecorder
	statuses []Status
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homekeep.db")
	db, err := database.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{db: db, s3: newMockS3(), recorder: &countingRecorder{}}
	cfg := Config{S3: testS3, DBPath: path, Passphrase: "hunter2", RetentionDays: 30}
	f.m = NewManager(cfg, db, store.NewBackupStore(db), f.recorder, func(s Status) {
		f.statuses = append(f.statuses, s)
	}, discardLogger())
	f.m.client = f.s3
	return f
}

func TestManagerState(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil, discardLogger())
	assert.Equal(t, StateDisabled, m.Status().State)
	assert.False(t, m.Enabled())

	m = NewManager(Config{S3: testS3}, nil, nil, nil, nil, discardLogger())
	assert.Equal(t, StateDisabled, m.Status().State, "passphrase is required")

	m = NewManager(Config{S3: testS3, Passphrase: "p"}, nil, nil, nil, nil, discardLogger())
	assert.Equal(t, StateIdle, m.Status().State)
	assert.True(t, m.Enabled())
}

func TestRunNowDisabled(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil, discardLogger())
	_, err := m.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestRunNowUploadsEncryptedDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.m.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BackupStatusCompleted, b.Status)
	assert.NotNil(t, b.CompletedAt)

	data, ok := f.s3.objects[b.S3Key]
	require.True(t, ok)
	assert.Equal(t, int64(len(data)), b.SizeBytes)

	plain, err := Decrypt(data, "hunter2")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(plain, []byte("SQLite format 3\x00")))

	assert.Equal(t, []string{"success"}, f.recorder.outcomes)
	require.Len(t, f.statuses, 2)
	assert.Equal(t, StateRunning, f.statuses[0].State)
	assert.True(t, f.statuses[0].InProgress)
	assert.Equal(t, StateIdle, f.statuses[1].State)
	assert.NotNil(t, f.m.Status().LastBackup)
}

func TestRunNowUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.s3.putErr = errors.New("bucket gone")
	ctx := context.Background()

	_, err := f.m.RunNow(ctx)
	require.Error(t, err)
	assert.Equal(t, StateError, f.m.Status().State)
	assert.Equal(t, []string{"failure"}, f.recorder.outcomes)

	list, err := f.m.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.BackupStatusFailed, list[0].Status)
	assert.Contains(t, list[0].ErrorMessage, "bucket gone")

	_, _, err = f.m.Download(ctx, list[0].ID)
	assert.Error(t, err, "failed backups are not downloadable")
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := store.NewHomeAreaStore(f.db).Create(ctx, "Garage")
	require.NoError(t, err)
	b, err := f.m.RunNow(ctx)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "restored.db")
	require.NoError(t, f.m.Restore(ctx, b.ID, dst))

	restored, err := sql.Open("sqlite", "file:"+dst)
	require.NoError(t, err)
	defer restored.Close()
	var name string
	require.NoError(t, restored.QueryRow(`SELECT name FROM home_areas`).Scan(&name))
	assert.Equal(t, "Garage", name)
}

func TestRestoreWrongPassphrase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.m.RunNow(ctx)
	require.NoError(t, err)

	f.m.cfg.Passphrase = "not it"
	err = f.m.Restore(ctx, b.ID, filepath.Join(t.TempDir(), "restored.db"))
	assert.Error(t, err)
}

func TestDownloadUnknownBackup(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.m.Download(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

type fakeBackups struct {
	repository.Backups
	keys   []string
	before time.Time
}

func (f *fakeBackups) DeleteOlderThan(_ context.Context, before time.Time) ([]string, error) {
	f.before = before
	return f.keys, nil
}

func TestCleanup(t *testing.T) {
	s3m := newMockS3()
	s3m.objects["homekeep/old-1"] = []byte("a")
	s3m.objects["homekeep/old-2"] = []byte("b")
	s3m.objects["homekeep/new"] = []byte("c")
	fb := &fakeBackups{keys: []string{"homekeep/old-1", "homekeep/old-2"}}

	m := NewManager(Config{S3: testS3, Passphrase: "p", RetentionDays: 7}, nil, fb, nil, nil, discardLogger())
	m.client = s3m
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	require.NoError(t, m.Cleanup(context.Background()))
	assert.Equal(t, fixed.AddDate(0, 0, -7), fb.before)
	assert.Len(t, s3m.objects, 1)
	assert.Contains(t, s3m.objects, "homekeep/new")
}

func TestCleanupToleratesObjectErrors(t *testing.T) {
	s3m := newMockS3()
	s3m.delErr = errors.New("denied")
	fb := &fakeBackups{keys: []string{"homekeep/old"}}

	m := NewManager(Config{S3: testS3, Passphrase: "p", RetentionDays: 7}, nil, fb, nil, nil, discardLogger())
	m.client = s3m
	assert.NoError(t, m.Cleanup(context.Background()))
}

func TestStartStop(t *testing.T) {
	m := NewManager(Config{S3: testS3, Passphrase: "p", Interval: time.Hour}, nil, nil, nil, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	m.Stop()
	// a second Stop must not block or panic
	m.Stop()
}

func TestStartDisabledIsNoop(t *testing.T) {
	m := NewManager(Config{}, nil, nil, nil, nil, discardLogger())
	m.Start(context.Background())
	m.Stop()
}
