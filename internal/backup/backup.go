// Package backup takes encrypted snapshots of the SQLite database and
// keeps them in S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/homekeep/internal/model"
	"github.com/dukerupert/homekeep/internal/repository"
)

var (
	ErrDisabled   = errors.New("backup not configured")
	ErrInProgress = errors.New("a backup is already running")
)

// s3Client is the subset of the S3 API the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3            S3Config
	DBPath        string
	Passphrase    string
	Interval      time.Duration
	RetentionDays int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the manager state changes.
type StatusCallback func(Status)

// Recorder counts backup runs by outcome.
type Recorder interface {
	BackupRun(outcome string)
}

type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback

	db       *sql.DB
	backups  repository.Backups
	client   s3Client
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager returns a manager that is disabled unless S3 credentials and
// a passphrase are configured.
func NewManager(cfg Config, db *sql.DB, backups repository.Backups, recorder Recorder, callback StatusCallback, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		db:       db,
		backups:  backups,
		recorder: recorder,
		callback: callback,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.complete() && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether backups can run.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start runs a backup and a retention sweep every cfg.Interval until ctx
// is cancelled or Stop is called. It does nothing when disabled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil || m.cfg.Interval <= 0 || m.done != nil {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.scheduled(ctx)
			}
		}
	}()
}

// Stop cancels the schedule and waits for an in-flight run to return.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) scheduled(ctx context.Context) {
	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}
	if err := m.Cleanup(ctx); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// RunNow checkpoints the WAL, encrypts a copy of the database and uploads
// it. Only one run proceeds at a time.
func (m *Manager) RunNow(ctx context.Context) (*model.Backup, error) {
	m.mu.Lock()
	if m.client == nil {
		m.mu.Unlock()
		return nil, ErrDisabled
	}
	if m.status.InProgress {
		m.mu.Unlock()
		return nil, ErrInProgress
	}
	last := m.status.LastBackup
	m.status = Status{State: StateRunning, InProgress: true, LastBackup: last}
	running := m.status
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(running)
	}

	b, err := m.run(ctx)
	if err != nil {
		m.record("failure")
		m.setStatus(Status{State: StateError, Error: err.Error(), LastBackup: last})
		return nil, err
	}
	m.record("success")
	at := m.now()
	m.setStatus(Status{State: StateIdle, LastBackup: &at})
	m.logger.Info("backup uploaded", "backup_id", b.ID, "key", b.S3Key, "size", b.SizeBytes)
	return b, nil
}

func (m *Manager) record(outcome string) {
	if m.recorder != nil {
		m.recorder.BackupRun(outcome)
	}
}

func (m *Manager) run(ctx context.Context) (*model.Backup, error) {
	filename := fmt.Sprintf("backup-%s.db.enc", m.now().Format("2006-01-02T150405.000Z"))
	s3Key := "homekeep/" + filename

	rec, err := m.backups.Create(ctx, filename, s3Key)
	if err != nil {
		return nil, fmt.Errorf("create backup record: %w", err)
	}
	fail := func(err error) (*model.Backup, error) {
		if uerr := m.backups.UpdateStatus(ctx, rec.ID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("failed to mark backup failed", "backup_id", rec.ID, "error", uerr)
		}
		return nil, err
	}

	if err := m.backups.UpdateStatus(ctx, rec.ID, model.BackupStatusUploading, ""); err != nil {
		return fail(fmt.Errorf("mark uploading: %w", err))
	}
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fail(fmt.Errorf("wal checkpoint: %w", err))
	}
	plain, err := os.ReadFile(m.cfg.DBPath)
	if err != nil {
		return fail(fmt.Errorf("read database: %w", err))
	}
	enc, err := Encrypt(plain, m.cfg.Passphrase)
	if err != nil {
		return fail(fmt.Errorf("encrypt: %w", err))
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(s3Key),
		Body:          bytes.NewReader(enc),
		ContentLength: aws.Int64(int64(len(enc))),
	})
	if err != nil {
		return fail(fmt.Errorf("upload to s3: %w", err))
	}

	if err := m.backups.UpdateCompleted(ctx, rec.ID, int64(len(enc))); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	return m.backups.Get(ctx, rec.ID)
}

func (m *Manager) List(ctx context.Context, limit int) ([]model.Backup, error) {
	if m.backups == nil {
		return nil, ErrDisabled
	}
	return m.backups.List(ctx, limit)
}

// Download streams the encrypted object of a completed backup.
func (m *Manager) Download(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	if !m.Enabled() {
		return nil, 0, ErrDisabled
	}
	rec, err := m.backups.Get(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("get backup: %w", err)
	}
	if rec.Status != model.BackupStatusCompleted {
		return nil, 0, fmt.Errorf("backup %s is %s", id, rec.Status)
	}
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(rec.S3Key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("download from s3: %w", err)
	}
	return out.Body, rec.SizeBytes, nil
}

// Restore downloads and decrypts a backup, checks its integrity and writes
// it over dst. The database at dst must not be open.
func (m *Manager) Restore(ctx context.Context, id, dst string) error {
	body, _, err := m.Download(ctx, id)
	if err != nil {
		return err
	}
	defer body.Close()

	enc, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plain, err := Decrypt(enc, m.cfg.Passphrase)
	if err != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(dst), fmt.Sprintf(".restore-%s.db", id))
	if err := os.WriteFile(tmp, plain, 0o600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(tmp)
	if err := checkIntegrity(ctx, tmp); err != nil {
		return err
	}

	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dst + "-wal")
	os.Remove(dst + "-shm")
	m.logger.Info("backup restored", "backup_id", id, "path", dst)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Cleanup removes backups older than the retention period from the table
// and from S3. Object deletion failures are logged and skipped.
func (m *Manager) Cleanup(ctx context.Context) error {
	if !m.Enabled() || m.cfg.RetentionDays <= 0 {
		return nil
	}
	before := m.now().AddDate(0, 0, -m.cfg.RetentionDays)
	keys, err := m.backups.DeleteOlderThan(ctx, before)
	if err != nil {
		return fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("failed to delete backup object", "key", key, "error", err)
		}
	}
	if len(keys) > 0 {
		m.logger.Info("old backups removed", "count", len(keys))
	}
	return nil
}
