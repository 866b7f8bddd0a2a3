// Package sync coordinates the authoritative remote store with the
// best-effort local mirror. A save always lands remote first; the
// mirror write is opportunistic and its failures degrade sync health
// without failing the user's save.
package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "github.com/yctsai/readnest/internal/errors"
	"github.com/yctsai/readnest/internal/logging"
	"github.com/yctsai/readnest/internal/models"
	"github.com/yctsai/readnest/internal/store"
)

// StatePersister stores sync bookkeeping between sessions. The local
// sqlite store implements it.
type StatePersister interface {
	LoadSyncState(ctx context.Context) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
}

// SaveResult reports how far a save got. Durable means the
// authoritative remote store accepted the write; Mirrored means the
// local copy also landed.
type SaveResult struct {
	Record   *models.DocumentRecord
	Durable  bool
	Mirrored bool
}

// reprobeInterval is how long reads stay on the mirror after a remote
// transport failure before trying the remote again.
const reprobeInterval = 30 * time.Second

// Coordinator routes reads and writes between the remote store and the
// local mirror. A remote transport failure sets a sticky remote-down
// flag so subsequent opens skip the doomed round trip; any later
// successful remote call clears it, and after reprobeInterval reads
// retry the remote on their own so a read-only session recovers too.
type Coordinator struct {
	remote store.RecordStore
	local  store.RecordStore
	states StatePersister
	log    *logging.Logger
	now    func() time.Time

	remoteDown        atomic.Bool
	lastRemoteFailure atomic.Int64
}

// New creates a Coordinator. remote is authoritative; local is the
// mirror consulted only when remote is unreachable.
func New(remote, local store.RecordStore, states StatePersister) *Coordinator {
	return &Coordinator{
		remote: remote,
		local:  local,
		states: states,
		log:    logging.Get().WithComponent("sync"),
		now:    time.Now,
	}
}

// markRemoteDown stamps the failure time so reads know when to probe
// the remote again.
func (c *Coordinator) markRemoteDown() {
	c.lastRemoteFailure.Store(c.now().UnixNano())
	c.remoteDown.Store(true)
}

// tryRemote reports whether a call should attempt the remote: either
// it is believed up, or the last failure is old enough to probe again.
func (c *Coordinator) tryRemote() bool {
	if !c.remoteDown.Load() {
		return true
	}
	return c.now().Sub(time.Unix(0, c.lastRemoteFailure.Load())) >= reprobeInterval
}

// SaveDocument persists a record remote-first. On remote failure the
// result still carries the in-memory record, marked not durable, and
// the error explains why. On remote success the local mirror is
// written best-effort: a mirror failure is recorded in sync state and
// logged but never propagated.
func (c *Coordinator) SaveDocument(ctx context.Context, rec *models.DocumentRecord, payload []byte) (*SaveResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid document record", err)
	}

	committed, err := c.remote.PutRecord(ctx, rec, payload)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTransportUnavailable) {
			c.markRemoteDown()
		}
		return &SaveResult{Record: rec}, fmt.Errorf("saving document %s: %w", rec.ID, err)
	}
	c.remoteDown.Store(false)

	result := &SaveResult{Record: committed, Durable: true}
	if _, merr := c.local.PutRecord(ctx, committed, payload); merr != nil {
		c.log.Warn("local mirror write failed", map[string]any{
			"record_id": committed.ID.String(),
			"error":     merr.Error(),
		})
		c.recordMirrorHealth(ctx, false, merr.Error())
		return result, nil
	}
	result.Mirrored = true
	c.recordMirrorHealth(ctx, true, "")
	return result, nil
}

// OpenDocument fetches a record with its payload, remote first. When
// the remote is unreachable (now, or stickily from a previous call)
// the local mirror serves the read. Only when both sides fail does the
// caller see DOCUMENT_UNAVAILABLE.
func (c *Coordinator) OpenDocument(ctx context.Context, id models.UUID) (*models.DocumentRecord, error) {
	var remoteErr error
	if c.tryRemote() {
		rec, err := c.remote.GetRecord(ctx, id, store.GetOptions{IncludePayload: true})
		if err == nil {
			c.remoteDown.Store(false)
			return rec, nil
		}
		if !apperrors.Is(err, apperrors.ErrTransportUnavailable) {
			return nil, err
		}
		c.markRemoteDown()
		remoteErr = err
	}

	rec, lerr := c.local.GetRecord(ctx, id, store.GetOptions{IncludePayload: true})
	if lerr == nil {
		c.log.Info("document served from local mirror", map[string]any{
			"record_id": id.String(),
		})
		return rec, nil
	}

	if remoteErr != nil {
		lerr = fmt.Errorf("%v (remote: %v)", lerr, remoteErr)
	}
	return nil, apperrors.Wrap(apperrors.ErrDocumentUnavailable,
		fmt.Sprintf("document %s is unavailable offline", id), lerr)
}

// ListDocuments lists metadata from the remote store, falling back to
// the mirror when the remote is unreachable. Listings from the mirror
// may lag the authoritative state.
func (c *Coordinator) ListDocuments(ctx context.Context, filter store.ListFilter) ([]models.DocumentRecord, error) {
	if c.tryRemote() {
		recs, err := c.remote.ListRecords(ctx, filter)
		if err == nil {
			c.remoteDown.Store(false)
			return recs, nil
		}
		if !apperrors.Is(err, apperrors.ErrTransportUnavailable) {
			return nil, err
		}
		c.markRemoteDown()
	}
	return c.local.ListRecords(ctx, filter)
}

// GetSyncStatus returns the persisted sync bookkeeping.
func (c *Coordinator) GetSyncStatus(ctx context.Context) (*models.SyncState, error) {
	return c.states.LoadSyncState(ctx)
}

// SetLastSyncTime overwrites the last-sync timestamp. There is no
// merge: a later sync from any device wins.
func (c *Coordinator) SetLastSyncTime(ctx context.Context, t time.Time) error {
	state, err := c.states.LoadSyncState(ctx)
	if err != nil {
		return err
	}
	state.LastSync = t.UTC()
	return c.states.SaveSyncState(ctx, state)
}

// RemoteAvailable reports the sticky remote reachability flag.
func (c *Coordinator) RemoteAvailable() bool {
	return !c.remoteDown.Load()
}

func (c *Coordinator) recordMirrorHealth(ctx context.Context, healthy bool, detail string) {
	persistMirrorHealth(ctx, c.states, c.log, healthy, detail)
}

// persistMirrorHealth updates the queryable mirror health fields,
// skipping the write when nothing changed.
func persistMirrorHealth(ctx context.Context, states StatePersister, log *logging.Logger, healthy bool, detail string) {
	state, err := states.LoadSyncState(ctx)
	if err != nil {
		log.Error("loading sync state", err, nil)
		return
	}
	if state.MirrorHealthy == healthy && state.LastMirrorError == detail {
		return
	}
	state.MirrorHealthy = healthy
	state.LastMirrorError = detail
	if err := states.SaveSyncState(ctx, state); err != nil {
		log.Error("persisting sync state", err, nil)
	}
}
