package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	backupPrefix     = "blog_"
	backupSuffix     = ".db"
	compressedSuffix = ".db.zst"
)

// BackupDatabase copies the store with SQLite VACUUM INTO, optionally
// compresses the copy with zstd, and prunes backups past retention.
// It returns the path of the new backup.
func BackupDatabase(ctx context.Context, cfg *Config) (string, error) {

	if _, err := os.Stat(cfg.DBPath); err != nil {
		return "", ErrUnavailable
	}

	// Create backup directory if it doesn't exist
	if err := os.MkdirAll(cfg.Backup.BackupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	// Generate backup filename with date format
	date := time.Now().Format("20060102")
	backupPath := filepath.Join(cfg.Backup.BackupDir, backupPrefix+date+backupSuffix)

	// Remove existing backups for today (atomic replacement)
	for _, path := range []string{backupPath, backupPath + ".zst"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to remove existing backup: %w", err)
		}
	}

	db, err := sql.Open(cfg.Driver, readWriteDSN(cfg.DBPath))
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// VACUUM INTO takes a literal, not a bind parameter
	quoted := strings.ReplaceAll(backupPath, "'", "''")
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if cfg.Backup.Compress {
		compressed, err := compressFile(backupPath)
		if err != nil {
			return "", fmt.Errorf("failed to compress backup: %w", err)
		}
		backupPath = compressed
	}

	// Cleanup old backups according to retention policy
	if err := CleanupBackups(&cfg.Backup, time.Now()); err != nil {
		return backupPath, fmt.Errorf("backup succeeded but cleanup failed: %w", err)
	}

	return backupPath, nil
}

// CleanupBackups removes backup files dated before the retention window.
// A retention of zero days keeps everything.
func CleanupBackups(cfg *BackupConfig, now time.Time) error {
	if cfg.RetentionDays <= 0 {
		return nil
	}

	files, err := os.ReadDir(cfg.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Backup directory doesn't exist yet
		}
		return fmt.Errorf("failed to read backup directory: %w", err)
	}

	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	for _, file := range files {
		fileDate, ok := backupDate(file.Name())
		if !ok {
			continue
		}

		// Keep files within retention period
		if fileDate.After(cutoff) {
			continue
		}

		filePath := filepath.Join(cfg.BackupDir, file.Name())
		if err := os.Remove(filePath); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", file.Name(), err)
		}
	}

	return nil
}

// ListBackups returns the backup file names sorted by date
func ListBackups(cfg *BackupConfig) ([]string, error) {
	files, err := os.ReadDir(cfg.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]string, 0, len(files))
	for _, file := range files {
		if _, ok := backupDate(file.Name()); ok {
			backups = append(backups, file.Name())
		}
	}

	// filename sorting gives chronological order
	sort.Strings(backups)
	return backups, nil
}

// backupDate extracts the date from blog_YYYYMMDD.db or blog_YYYYMMDD.db.zst
func backupDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, backupPrefix) {
		return time.Time{}, false
	}

	datePart := strings.TrimPrefix(name, backupPrefix)
	switch {
	case strings.HasSuffix(datePart, compressedSuffix):
		datePart = strings.TrimSuffix(datePart, compressedSuffix)
	case strings.HasSuffix(datePart, backupSuffix):
		datePart = strings.TrimSuffix(datePart, backupSuffix)
	default:
		return time.Time{}, false
	}

	fileDate, err := time.Parse("20060102", datePart)
	if err != nil {
		return time.Time{}, false
	}
	return fileDate, true
}

// compressFile writes path.zst and removes path
func compressFile(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dstPath := path + ".zst"
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}

	enc, err := zstd.NewWriter(dst)
	if err != nil {
		dst.Close()
		return "", err
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		dst.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}

	src.Close()
	if err := os.Remove(path); err != nil {
		return "", err
	}

	return dstPath, nil
}

// RestoreBackup replaces the store file with a backup and returns the
// backup path used. name is either a path or a file name in the backup
// directory. The copy is written next to the store and renamed over it.
func RestoreBackup(cfg *Config, name string) (string, error) {

	src := name
	if _, err := os.Stat(src); err != nil {
		src = filepath.Join(cfg.Backup.BackupDir, name)
	}

	if _, ok := backupDate(filepath.Base(src)); !ok {
		return "", fmt.Errorf("%s is not a backup file", name)
	}
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("backup not found: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	tmp := cfg.DBPath + ".restore"
	var err error
	if strings.HasSuffix(src, compressedSuffix) {
		err = DecompressBackup(src, tmp)
	} else {
		err = copyFile(src, tmp)
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to restore backup: %w", err)
	}

	if err := os.Rename(tmp, cfg.DBPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to replace database: %w", err)
	}

	return src, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DecompressBackup restores a .db.zst backup to dst
func DecompressBackup(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
