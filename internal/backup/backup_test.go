package backup

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mkline/careshift/internal/database"
	"github.com/mkline/careshift/internal/model"
	"github.com/mkline/careshift/internal/store"
)

// fakeS3 records uploaded objects in memory.
type fakeS3 struct {
	objects map[string][]byte
	deleted []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *input.Key)
	f.deleted = append(f.deleted, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func setupManager(t *testing.T) (*Manager, *fakeS3, *store.BackupStore) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "careshift.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := store.NewBackupStore(db)
	ss := store.NewSettingsStore(db)

	// Seed a passphrase salt so RunNow is considered configured
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if err := ss.Set("backup_passphrase_salt", hex.EncodeToString(salt)); err != nil {
		t.Fatalf("set salt: %v", err)
	}

	cfg := Config{
		DBPath: dbPath,
		S3: S3Config{
			Bucket:    "test-bucket",
			Region:    "auto",
			AccessKey: "key",
			SecretKey: "secret",
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(cfg, db, bs, ss, logger, nil)

	fake := newFakeS3()
	m.client = fake
	return m, fake, bs
}

func TestRunNowUploadsEncryptedSnapshot(t *testing.T) {
	m, fake, bs := setupManager(t)

	id, err := m.RunNow(context.Background(), "family passphrase")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	record, err := bs.GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil {
		t.Fatal("expected backup record")
	}
	if record.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want %q", record.Status, model.BackupStatusCompleted)
	}
	if record.SizeBytes <= 0 {
		t.Errorf("size = %d, want > 0", record.SizeBytes)
	}

	data, ok := fake.objects[record.S3Key]
	if !ok {
		t.Fatalf("object %q not uploaded", record.S3Key)
	}
	if int64(len(data)) != record.SizeBytes {
		t.Errorf("uploaded %d bytes, record says %d", len(data), record.SizeBytes)
	}
	// Encrypted payload must not look like a SQLite file
	if strings.HasPrefix(string(data), "SQLite format 3") {
		t.Error("uploaded object is not encrypted")
	}

	if !m.HasCachedKey() {
		t.Error("expected passphrase to be cached after RunNow")
	}

	status := m.Status()
	if status.State != StateIdle {
		t.Errorf("state = %q, want %q", status.State, StateIdle)
	}
	if status.LastBackup == nil {
		t.Error("expected LastBackup to be set")
	}
}

func TestRunNowWithoutSalt(t *testing.T) {
	m, _, _ := setupManager(t)

	// Clear the seeded salt
	dbPath := filepath.Join(t.TempDir(), "other.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	m.settingsStore = store.NewSettingsStore(db)
	m.settingsStore.Set("backup_passphrase_salt", "")

	if _, err := m.RunNow(context.Background(), "pass"); err == nil {
		t.Fatal("expected error without configured salt")
	}
}

func TestManagerDisabledWithoutCredentials(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "careshift.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{DBPath: dbPath}, db, store.NewBackupStore(db), store.NewSettingsStore(db), logger, nil)

	if got := m.Status().State; got != StateDisabled {
		t.Errorf("state = %q, want %q", got, StateDisabled)
	}
	if _, err := m.RunNow(context.Background(), "pass"); err == nil {
		t.Fatal("expected error from disabled manager")
	}
}

func TestCleanupDeletesOldBackups(t *testing.T) {
	m, fake, bs := setupManager(t)

	id, err := m.RunNow(context.Background(), "family passphrase")
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}
	record, _ := bs.GetByID(id)
	fakeKey := record.S3Key

	// Retention of -1 days puts the cutoff in the future, so everything
	// is considered old
	if err := m.Cleanup(context.Background(), -1); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	if len(fake.deleted) != 1 || fake.deleted[0] != fakeKey {
		t.Errorf("deleted keys = %v, want [%s]", fake.deleted, fakeKey)
	}
	got, err := bs.GetByID(id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got != nil {
		t.Error("expected record to be deleted")
	}
}
