package main

import (
	"context"
	"fmt"
	"time"

	"github.com/yctsai/readnest/internal/collections"
	"github.com/yctsai/readnest/internal/config"
	"github.com/yctsai/readnest/internal/crypto"
	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/export"
	"github.com/yctsai/readnest/internal/ingest"
	"github.com/yctsai/readnest/internal/mirror"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store/local"
	"github.com/yctsai/readnest/internal/store/remote"
	"github.com/yctsai/readnest/internal/sync"
	"github.com/yctsai/readnest/internal/sync/ledger"
	"github.com/yctsai/readnest/internal/uuid"
)

// App bundles the wired core services a UI shell works through.
type App struct {
	Local       *local.Store
	Remote      *remote.Client
	Coordinator *sync.Coordinator
	Ledger      *ledger.Ledger
	Tree        *collections.Tree
	Mirror      *mirror.Mirror
	Export      *export.Service

	cfg *config.Config
	db  *local.DB
}

// newApp opens the local workspace, runs migrations and wires every
// service against the configured remote.
func newApp(cfg *config.Config) (*App, error) {
	db, err := local.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := local.NewMigrator(db.DB).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating workspace database: %w", err)
	}

	localStore := local.NewStore(db.DB)

	remoteClient := remote.NewClient(remote.Options{
		BaseURL: cfg.Remote.BaseURL,
		TokenProvider: func(ctx context.Context) (string, error) {
			return cfg.Remote.Token, nil
		},
	})

	app := &App{
		Local:       localStore,
		Remote:      remoteClient,
		Coordinator: sync.New(remoteClient, localStore, localStore),
		Ledger:      ledger.New(remoteClient),
		Tree:        collections.NewTree(sync.NewCollections(remoteClient, localStore, localStore)),
		Mirror:      mirror.New(localStore, localStore, localStore, crypto.DeriveKey(cfg.InstallID)),
		Export:      export.NewService(localStore, localStore),
		cfg:         cfg,
		db:          db,
	}
	return app, nil
}

// AddDocument extracts page text from the uploaded bytes, builds the
// record and saves it through the coordinator. A title found in the
// content is used only when the caller gave none.
func (a *App) AddDocument(ctx context.Context, title string, fileType models.FileType, data []byte) (*sync.SaveResult, error) {
	extracted, err := ingest.Extract(fileType, data)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = extracted.Title
	}

	rec := &models.DocumentRecord{
		ID:         models.UUID(uuid.New()),
		Title:      title,
		FileType:   fileType,
		SavedAt:    time.Now().UTC(),
		TotalPages: extracted.TotalPages,
		PageTexts:  extracted.PageTexts,
		SizeBytes:  int64(len(data)),
	}
	return a.Coordinator.SaveDocument(ctx, rec, data)
}

// EnableMirror turns on the cloud mirror using the configured
// provider's bucket settings. Credentials from the config are handed
// to the mirror once; it stores them encrypted.
func (a *App) EnableMirror(ctx context.Context) error {
	mc := a.cfg.Mirror
	var s3cfg *mirror.S3Config
	switch mc.Provider {
	case "aws":
		s3cfg = mirror.AWSSettings(&mirror.AWSConfig{
			BucketName: mc.Bucket,
			AccessKey:  mc.AccessKey,
			SecretKey:  mc.SecretKey,
			Region:     mc.Region,
		})
	case "minio":
		s3cfg = mirror.MinIOSettings(&mirror.MinIOConfig{
			Endpoint:   mc.Endpoint,
			BucketName: mc.Bucket,
			AccessKey:  mc.AccessKey,
			SecretKey:  mc.SecretKey,
			UseSSL:     mc.UseSSL,
		})
	case "r2":
		var err error
		s3cfg, err = mirror.R2Settings(&mirror.R2Config{
			AccountID:  mc.AccountID,
			BucketName: mc.Bucket,
			AccessKey:  mc.AccessKey,
			SecretKey:  mc.SecretKey,
		})
		if err != nil {
			return apperrors.Wrap(apperrors.ErrValidation, "invalid mirror settings", err)
		}
	case "":
		return apperrors.New(apperrors.ErrMirrorNotConfigured, "no mirror provider configured")
	default:
		return apperrors.New(apperrors.ErrValidation, fmt.Sprintf("unknown mirror provider %q", mc.Provider))
	}
	return a.Mirror.Enable(ctx, s3cfg)
}

// Close releases the workspace database.
func (a *App) Close() error {
	if err := a.Local.Close(); err != nil {
		return err
	}
	return a.db.Close()
}
