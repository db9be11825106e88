// Package backup uploads point-in-time copies of the sqlite user database.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"user-console/internal/repository/sqlite"
	"user-console/internal/storage"
)

type Config struct {
	WorkDir       string
	UploadOptions storage.UploadOptions
	Logger        *logrus.Logger
	Now           func() time.Time
}

type Snapshotter struct {
	cfg   Config
	db    *sql.DB
	store storage.Service
}

func NewSnapshotter(cfg Config, db *sql.DB, store storage.Service) *Snapshotter {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Snapshotter{cfg: cfg, db: db, store: store}
}

// Run copies the database to a local file, uploads it and removes the local copy.
// It returns the remote location.
func (s *Snapshotter) Run(ctx context.Context) (string, error) {
	name := fmt.Sprintf("users-%s.db", s.cfg.Now().UTC().Format("20060102T150405Z"))
	local := filepath.Join(s.cfg.WorkDir, name)
	logger := s.cfg.Logger.WithField("snapshot", name)

	if err := sqlite.Snapshot(ctx, s.db, local); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}
	defer func() {
		if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
			logger.Warnf("cleanup snapshot: %v", err)
		}
	}()

	dest, err := s.store.UploadFile(ctx, local, s.cfg.UploadOptions)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	logger.Infof("snapshot uploaded to %s", dest)

	objects, err := s.store.ListObjects(ctx, s.cfg.UploadOptions.Bucket, s.cfg.UploadOptions.KeyPrefix)
	if err != nil {
		logger.Warnf("list snapshots: %v", err)
	} else {
		logger.Infof("%d snapshots stored under %s", len(objects), s.cfg.UploadOptions.KeyPrefix)
	}
	return dest, nil
}
