package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBackupDatabase(t *testing.T) {
	var TestCases = []struct {
		description string
		compress    bool
		suffix      string
	}{
		{"plain copy", false, ".db"},
		{"zstd compressed", true, ".db.zst"},
	}

	for _, tc := range TestCases {
		cfg := TestConfig(t.TempDir())
		cfg.Backup.Compress = tc.compress

		if _, err := InitDatabase(context.Background(), cfg, true); err != nil {
			t.Fatalf("%s: init failed: %v", tc.description, err)
		}

		path, err := BackupDatabase(context.Background(), cfg)
		if err != nil {
			t.Fatalf("%s: backup failed: %v", tc.description, err)
		}

		date := time.Now().Format("20060102")
		expected := filepath.Join(cfg.Backup.BackupDir, "blog_"+date+tc.suffix)
		if path != expected {
			t.Errorf("%s: expected %s, got %s", tc.description, expected, path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s: backup file missing: %v", tc.description, err)
		}

		restored := path
		if tc.compress {
			// the uncompressed intermediate must be gone
			if _, err := os.Stat(strings.TrimSuffix(path, ".zst")); !os.IsNotExist(err) {
				t.Errorf("%s: uncompressed copy left behind", tc.description)
			}

			restored = filepath.Join(t.TempDir(), "restored.db")
			if err := DecompressBackup(path, restored); err != nil {
				t.Fatalf("%s: decompress failed: %v", tc.description, err)
			}
		}

		// the backup is a working store with the same posts
		restoredCfg := *cfg
		restoredCfg.DBPath = restored
		repo := NewRepository(NewAccessor(&restoredCfg))
		count, err := repo.GetPostsCount(context.Background(), newTestTracker())
		if err != nil {
			t.Fatalf("%s: count on backup failed: %v", tc.description, err)
		}
		if count != len(samplePosts) {
			t.Errorf("%s: expected %d posts in backup, got %d", tc.description, len(samplePosts), count)
		}
	}
}

func TestBackupDatabaseReplacesTodaysBackup(t *testing.T) {
	cfg := TestConfig(t.TempDir())
	if _, err := InitDatabase(context.Background(), cfg, false); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := BackupDatabase(context.Background(), cfg); err != nil {
			t.Fatalf("backup %d failed: %v", i, err)
		}
	}

	backups, err := ListBackups(&cfg.Backup)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected a single backup for today, got %v", backups)
	}
}

func TestBackupDatabaseMissingStore(t *testing.T) {
	cfg := TestConfig(t.TempDir())

	if _, err := BackupDatabase(context.Background(), cfg); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if _, err := os.Stat(cfg.DBPath); !os.IsNotExist(err) {
		t.Error("backup created the store file")
	}
}

func TestCleanupBackups(t *testing.T) {
	dir := t.TempDir()
	cfg := &BackupConfig{BackupDir: dir, RetentionDays: 30}
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	files := []string{
		"blog_20240101.db",     // old
		"blog_20240215.db.zst", // old
		"blog_20240320.db",     // recent
		"blog_20240330.db.zst", // recent
		"blog_invalid.db",      // ignored
		"other_20240101.db",    // ignored
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	if err := CleanupBackups(cfg, now); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	var TestCases = []struct {
		name   string
		exists bool
	}{
		{"blog_20240101.db", false},
		{"blog_20240215.db.zst", false},
		{"blog_20240320.db", true},
		{"blog_20240330.db.zst", true},
		{"blog_invalid.db", true},
		{"other_20240101.db", true},
	}

	for _, tc := range TestCases {
		_, err := os.Stat(filepath.Join(dir, tc.name))
		if exists := err == nil; exists != tc.exists {
			t.Errorf("%s: expected exists=%v, got %v", tc.name, tc.exists, exists)
		}
	}

	backups, err := ListBackups(cfg)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	expected := []string{"blog_20240320.db", "blog_20240330.db.zst"}
	if strings.Join(backups, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, backups)
	}
}

func TestCleanupBackupsMissingDir(t *testing.T) {
	cfg := &BackupConfig{BackupDir: filepath.Join(t.TempDir(), "nope"), RetentionDays: 30}

	if err := CleanupBackups(cfg, time.Now()); err != nil {
		t.Errorf("expected nil for missing directory, got %v", err)
	}

	backups, err := ListBackups(cfg)
	if err != nil || len(backups) != 0 {
		t.Errorf("expected no backups, got %v, %v", backups, err)
	}
}

func TestRestoreBackup(t *testing.T) {
	var TestCases = []struct {
		description string
		compress    bool
		byPath      bool
	}{
		{"compressed by name", true, false},
		{"plain by name", false, false},
		{"compressed by path", true, true},
	}

	for _, tc := range TestCases {
		cfg := TestConfig(t.TempDir())
		cfg.Backup.Compress = tc.compress

		if _, err := InitDatabase(context.Background(), cfg, true); err != nil {
			t.Fatalf("%s: init failed: %v", tc.description, err)
		}
		path, err := BackupDatabase(context.Background(), cfg)
		if err != nil {
			t.Fatalf("%s: backup failed: %v", tc.description, err)
		}

		if err := os.Remove(cfg.DBPath); err != nil {
			t.Fatal(err)
		}

		name := filepath.Base(path)
		if tc.byPath {
			name = path
		}

		used, err := RestoreBackup(cfg, name)
		if err != nil {
			t.Fatalf("%s: restore failed: %v", tc.description, err)
		}
		if used != path {
			t.Errorf("%s: expected %s, got %s", tc.description, path, used)
		}

		count, err := NewRepository(NewAccessor(cfg)).GetPostsCount(context.Background(), newTestTracker())
		if err != nil {
			t.Fatalf("%s: count after restore failed: %v", tc.description, err)
		}
		if count != len(samplePosts) {
			t.Errorf("%s: expected %d posts, got %d", tc.description, len(samplePosts), count)
		}

		if _, err := os.Stat(cfg.DBPath + ".restore"); !os.IsNotExist(err) {
			t.Errorf("%s: temporary restore file left behind", tc.description)
		}
	}
}

func TestRestoreBackupRejects(t *testing.T) {
	cfg := TestConfig(t.TempDir())

	var TestCases = []struct {
		description string
		name        string
	}{
		{"missing backup", "blog_20240101.db.zst"},
		{"not a backup name", "database.db"},
	}

	for _, tc := range TestCases {
		if _, err := RestoreBackup(cfg, tc.name); err == nil {
			t.Errorf("%s: expected an error", tc.description)
		}
	}

	if _, err := os.Stat(cfg.DBPath); !os.IsNotExist(err) {
		t.Error("failed restore created the store file")
	}
}
