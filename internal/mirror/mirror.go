package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yctsai/readnest/internal/crypto"
	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/logging"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/payload"
	"github.com/yctsai/readnest/internal/store"
	"github.com/yctsai/readnest/internal/uuid"
)

// recordPrefix is where document objects live in the bucket.
const recordPrefix = "records/"

// pageSize batches the local listing during SyncUp.
const pageSize = 100

// CredentialStore persists the encrypted mirror configuration. The
// local sqlite store implements it.
type CredentialStore interface {
	SaveMirrorCredential(ctx context.Context, cred *models.MirrorCredential) error
	GetMirrorCredential(ctx context.Context) (*models.MirrorCredential, error)
}

// StateStore persists sync bookkeeping.
type StateStore interface {
	LoadSyncState(ctx context.Context) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
}

// Report aggregates a bulk transfer. Per-item failures do not abort
// the run; they are counted and detailed in Errors.
type Report struct {
	Started    time.Time     `json:"started"`
	Finished   time.Time     `json:"finished"`
	Duration   time.Duration `json:"duration"`
	Uploaded   int           `json:"uploaded"`
	Downloaded int           `json:"downloaded"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Errors     []string      `json:"errors,omitempty"`
}

// wireRecord is the object body: record metadata plus the payload
// base64-encoded.
type wireRecord struct {
	models.DocumentRecord
	Payload string `json:"payload,omitempty"`
}

// Mirror replicates document records to an S3-compatible bucket.
type Mirror struct {
	records store.RecordStore
	creds   CredentialStore
	states  StateStore
	key     []byte
	log     *logging.Logger

	// dial builds the object store from a config; tests swap it for a
	// fake.
	dial    func(*S3Config) ObjectStore
	objects ObjectStore
}

// New creates a Mirror over the local store. key seals credentials at
// rest; derive it with crypto.DeriveKey.
func New(records store.RecordStore, creds CredentialStore, states StateStore, key []byte) *Mirror {
	return &Mirror{
		records: records,
		creds:   creds,
		states:  states,
		key:     key,
		log:     logging.Get().WithComponent("mirror"),
		dial: func(cfg *S3Config) ObjectStore {
			return NewS3Client(cfg)
		},
	}
}

// Enable verifies the configuration with an authenticated list probe,
// persists the credentials encrypted and turns the mirror on. Bad
// credentials surface as MIRROR_AUTH_FAILED and nothing is persisted.
func (m *Mirror) Enable(ctx context.Context, cfg *S3Config) error {
	if cfg.Endpoint == "" || cfg.BucketName == "" {
		return apperrors.New(apperrors.ErrValidation, "mirror endpoint and bucket are required")
	}

	client := m.dial(cfg)
	if _, err := client.List(ctx, recordPrefix); err != nil {
		return fmt.Errorf("verifying mirror access: %w", err)
	}

	accessSealed, err := crypto.Seal([]byte(cfg.AccessKey), m.key)
	if err != nil {
		return err
	}
	secretSealed, err := crypto.Seal([]byte(cfg.SecretKey), m.key)
	if err != nil {
		return err
	}

	cred, err := m.creds.GetMirrorCredential(ctx)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrMirrorNotConfigured) {
			return err
		}
		cred = &models.MirrorCredential{ID: models.UUID(uuid.New())}
	}
	cred.Endpoint = cfg.Endpoint
	cred.BucketName = cfg.BucketName
	cred.Region = cfg.Region
	cred.AccessKeyEncrypted = accessSealed
	cred.SecretKeyEncrypted = secretSealed
	cred.IsEnabled = true
	if err := m.creds.SaveMirrorCredential(ctx, cred); err != nil {
		return err
	}

	if err := m.setEnabled(ctx, true); err != nil {
		return err
	}

	m.objects = client
	m.log.Info("mirror enabled", map[string]any{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.BucketName,
	})
	return nil
}

// Disable turns the mirror off without deleting anything remote.
func (m *Mirror) Disable(ctx context.Context) error {
	cred, err := m.creds.GetMirrorCredential(ctx)
	if err == nil {
		cred.IsEnabled = false
		if err := m.creds.SaveMirrorCredential(ctx, cred); err != nil {
			return err
		}
	} else if !apperrors.Is(err, apperrors.ErrMirrorNotConfigured) {
		return err
	}
	m.objects = nil
	return m.setEnabled(ctx, false)
}

func (m *Mirror) setEnabled(ctx context.Context, enabled bool) error {
	state, err := m.states.LoadSyncState(ctx)
	if err != nil {
		return err
	}
	state.Enabled = enabled
	return m.states.SaveSyncState(ctx, state)
}

// connect reopens the object store from the persisted credentials.
func (m *Mirror) connect(ctx context.Context) (ObjectStore, error) {
	if m.objects != nil {
		return m.objects, nil
	}

	cred, err := m.creds.GetMirrorCredential(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.IsEnabled {
		return nil, apperrors.New(apperrors.ErrMirrorNotConfigured, "mirror is disabled")
	}

	accessKey, err := crypto.Open(cred.AccessKeyEncrypted, m.key)
	if err != nil {
		return nil, err
	}
	secretKey, err := crypto.Open(cred.SecretKeyEncrypted, m.key)
	if err != nil {
		return nil, err
	}

	// endpoints persisted with a scheme came from a path-style
	// provider like MinIO
	pathStyle := strings.HasPrefix(cred.Endpoint, "http://") ||
		strings.HasPrefix(cred.Endpoint, "https://")

	m.objects = m.dial(&S3Config{
		Endpoint:       cred.Endpoint,
		BucketName:     cred.BucketName,
		AccessKey:      string(accessKey),
		SecretKey:      string(secretKey),
		Region:         cred.Region,
		ForcePathStyle: pathStyle,
	})
	return m.objects, nil
}

func recordKey(id models.UUID) string {
	return recordPrefix + id.String() + ".json"
}

// SyncUp pushes every local record to the bucket, overwriting whole
// objects. Individual failures are counted and the run continues.
func (m *Mirror) SyncUp(ctx context.Context) (*Report, error) {
	objects, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Started: time.Now()}
	defer report.finish()

	for offset := 0; ; offset += pageSize {
		page, err := m.records.ListRecords(ctx, store.ListFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return report, fmt.Errorf("listing local records: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if err := m.uploadRecord(ctx, objects, page[i].ID); err != nil {
				report.fail(fmt.Sprintf("upload %s: %v", page[i].ID, err))
				continue
			}
			report.Uploaded++
		}

		if len(page) < pageSize {
			break
		}
	}

	m.touchLastSync(ctx)
	m.log.Info("mirror sync up finished", map[string]any{
		"uploaded": report.Uploaded,
		"failed":   report.Failed,
	})
	return report, nil
}

func (m *Mirror) uploadRecord(ctx context.Context, objects ObjectStore, id models.UUID) error {
	rec, err := m.records.GetRecord(ctx, id, store.GetOptions{IncludePayload: true})
	if err != nil {
		return err
	}

	wire := wireRecord{DocumentRecord: *rec}
	if len(rec.Payload) > 0 {
		wire.Payload = payload.EncodeForTransport(rec.Payload)
	}
	wire.DocumentRecord.Payload = nil

	body, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	return objects.Upload(ctx, recordKey(id), body)
}

// SyncDown pulls every record object from the bucket into the local
// store, overwriting whole records. Objects under the prefix that are
// not record documents are skipped; malformed ones count as failed.
func (m *Mirror) SyncDown(ctx context.Context) (*Report, error) {
	objects, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Started: time.Now()}
	defer report.finish()

	keys, err := objects.List(ctx, recordPrefix)
	if err != nil {
		return report, fmt.Errorf("listing mirror objects: %w", err)
	}

	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			report.Skipped++
			continue
		}
		if err := m.downloadRecord(ctx, objects, key); err != nil {
			report.fail(fmt.Sprintf("download %s: %v", key, err))
			continue
		}
		report.Downloaded++
	}

	m.touchLastSync(ctx)
	m.log.Info("mirror sync down finished", map[string]any{
		"downloaded": report.Downloaded,
		"skipped":    report.Skipped,
		"failed":     report.Failed,
	})
	return report, nil
}

func (m *Mirror) downloadRecord(ctx context.Context, objects ObjectStore, key string) error {
	body, err := objects.Download(ctx, key)
	if err != nil {
		return err
	}

	var wire wireRecord
	if err := json.Unmarshal(body, &wire); err != nil {
		return apperrors.Wrap(apperrors.ErrMirrorFailed, "decoding record object", err)
	}
	if err := wire.DocumentRecord.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrMirrorFailed, "record object failed validation", err)
	}

	var data []byte
	if wire.Payload != "" {
		data, err = payload.Decode(payload.FromBase64(wire.Payload))
		if err != nil {
			return err
		}
	}

	_, err = m.records.PutRecord(ctx, &wire.DocumentRecord, data)
	return err
}

func (m *Mirror) touchLastSync(ctx context.Context) {
	state, err := m.states.LoadSyncState(ctx)
	if err != nil {
		m.log.Error("loading sync state", err, nil)
		return
	}
	state.LastSync = time.Now().UTC()
	if err := m.states.SaveSyncState(ctx, state); err != nil {
		m.log.Error("persisting sync state", err, nil)
	}
}

func (r *Report) finish() {
	r.Finished = time.Now()
	r.Duration = r.Finished.Sub(r.Started)
}

func (r *Report) fail(detail string) {
	r.Failed++
	r.Errors = append(r.Errors, detail)
}
