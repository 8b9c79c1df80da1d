// Package repository composes validation, working-hours computation and
// persistence for time records, scoped to the signed-in user. Failures cross
// this boundary as result objects, never as panics; only backend errors are
// also returned as errors for logging.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pontual/internal/cache"
	"pontual/internal/metrics"
	"pontual/internal/model"
	"pontual/internal/timeutil"
	"pontual/internal/validate"
)

const recordsCacheKey = "records"

// ErrNotSignedIn is returned by read operations without a session.
var ErrNotSignedIn = errors.New("not signed in")

// RecordStore is the persistence behind the repository: the local sqlite
// database or the remote backend client.
type RecordStore interface {
	CreateRecord(ctx context.Context, r *model.TimeRecord) error
	ListRecordsByUser(ctx context.Context, userID string) ([]model.TimeRecord, error)
	ListRecordsByRange(ctx context.Context, userID, start, end string) ([]model.TimeRecord, error)
	GetRecord(ctx context.Context, id string) (*model.TimeRecord, error)
	DeleteRecord(ctx context.Context, id string) error
	UpdateRecordStatus(ctx context.Context, id string, status model.Status, updatedAt time.Time) error
}

// Session exposes the authenticated user.
type Session interface {
	CurrentUser() (*model.Profile, bool)
}

// SaveResult reports the outcome of Save.
type SaveResult struct {
	Success bool              `json:"success"`
	Record  *model.TimeRecord `json:"record,omitempty"`
	Errors  []string          `json:"errors,omitempty"`
	Message string            `json:"message,omitempty"`
}

// OpResult reports the outcome of delete/approve/reject.
type OpResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Repository persists time records for the current user.
type Repository struct {
	store   RecordStore
	cache   *cache.SecureCache
	session Session
	logger  *zerolog.Logger
	now     func() time.Time
}

// New constructs a repository.
func New(store RecordStore, c *cache.SecureCache, session Session, logger *zerolog.Logger) *Repository {
	return &Repository{
		store:   store,
		cache:   c,
		session: session,
		logger:  logger,
		now:     time.Now,
	}
}

// Save validates input, derives working hours, stamps identity fields and
// persists the record. Validation failures return without side effects.
func (r *Repository) Save(ctx context.Context, input model.TimeRecord) SaveResult {
	user, ok := r.session.CurrentUser()
	if !ok {
		return SaveResult{Success: false, Message: "not signed in"}
	}

	if res := validate.Record(input); !res.IsValid {
		return SaveResult{Success: false, Errors: res.Errors}
	}

	total := 0
	if input.Exit1 != "" {
		var err error
		total, err = timeutil.ComputeWorkedMinutes(input.Entry1, input.Exit1, input.Entry2, input.Exit2, input.BreakMinutes)
		if err != nil {
			// Unreachable after validation; belt for future field changes.
			return SaveResult{Success: false, Errors: []string{err.Error()}}
		}
	}
	wh := timeutil.FormatMinutes(total)

	now := r.now()
	rec := input
	rec.ID = uuid.NewString()
	rec.UserID = user.ID
	rec.WorkingHours = &wh
	// Every record starts pending; only a manager decision moves it on.
	rec.Status = model.StatusPending
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := r.store.CreateRecord(ctx, &rec); err != nil {
		r.logger.Error().Err(err).Str("user_id", user.ID).Msg("repository: save failed")
		return SaveResult{Success: false, Message: "could not save record"}
	}

	metrics.IncRecordSaved()
	r.invalidate(user.ID)
	return SaveResult{Success: true, Record: &rec}
}

// GetAll returns all records of the current user, newest first, through the
// cache.
func (r *Repository) GetAll(ctx context.Context) ([]model.TimeRecord, error) {
	user, ok := r.session.CurrentUser()
	if !ok {
		return nil, ErrNotSignedIn
	}

	var records []model.TimeRecord
	if r.cache.Get(recordsCacheKey, user.ID, &records) {
		return records, nil
	}

	records, err := r.store.ListRecordsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(recordsCacheKey, records, user.ID)
	return records, nil
}

// GetByDateRange returns the current user's records with start <= date <= end
// (inclusive bounds).
func (r *Repository) GetByDateRange(ctx context.Context, start, end string) ([]model.TimeRecord, error) {
	user, ok := r.session.CurrentUser()
	if !ok {
		return nil, ErrNotSignedIn
	}

	key := recordsCacheKey + ":" + start + ":" + end
	var records []model.TimeRecord
	if r.cache.Get(key, user.ID, &records) {
		return records, nil
	}

	records, err := r.store.ListRecordsByRange(ctx, user.ID, start, end)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, records, user.ID)
	return records, nil
}

// Delete removes the current user's record by id. Deleting an id that does
// not exist still reports success.
func (r *Repository) Delete(ctx context.Context, id string) OpResult {
	user, ok := r.session.CurrentUser()
	if !ok {
		return OpResult{Success: false, Message: "not signed in"}
	}

	rec, err := r.store.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OpResult{Success: true}
		}
		r.logger.Error().Err(err).Str("id", id).Msg("repository: delete lookup failed")
		return OpResult{Success: false, Message: "could not delete record"}
	}
	if rec.UserID != user.ID {
		// Do not reveal other users' record ids.
		return OpResult{Success: false, Message: "record not found"}
	}

	if err := r.store.DeleteRecord(ctx, id); err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("repository: delete failed")
		return OpResult{Success: false, Message: "could not delete record"}
	}
	r.invalidate(user.ID)
	return OpResult{Success: true}
}

// Approve moves a pending record to approved.
func (r *Repository) Approve(ctx context.Context, id string) OpResult {
	return r.decide(ctx, id, model.StatusApproved)
}

// Reject moves a pending record to rejected.
func (r *Repository) Reject(ctx context.Context, id string) OpResult {
	return r.decide(ctx, id, model.StatusRejected)
}

// decide applies the status machine: pending -> approved|rejected only, by a
// manager who does not own the record. There is no way back to pending.
func (r *Repository) decide(ctx context.Context, id string, target model.Status) OpResult {
	actor, ok := r.session.CurrentUser()
	if !ok {
		return OpResult{Success: false, Message: "not signed in"}
	}
	if actor.Role != model.RoleManager {
		return OpResult{Success: false, Message: "manager role required"}
	}

	rec, err := r.store.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OpResult{Success: true}
		}
		r.logger.Error().Err(err).Str("id", id).Msg("repository: decision lookup failed")
		return OpResult{Success: false, Message: "could not update record"}
	}
	if rec.UserID == actor.ID {
		return OpResult{Success: false, Message: "cannot review your own record"}
	}
	if rec.Status != model.StatusPending {
		return OpResult{Success: false, Message: "only pending records can be reviewed"}
	}

	if err := r.store.UpdateRecordStatus(ctx, id, target, r.now()); err != nil {
		r.logger.Error().Err(err).Str("id", id).Msg("repository: status update failed")
		return OpResult{Success: false, Message: "could not update record"}
	}

	metrics.IncRecordDecision(string(target))
	r.invalidate(rec.UserID)
	return OpResult{Success: true}
}

// invalidate drops the owner's cached reads after a mutation.
func (r *Repository) invalidate(userID string) {
	r.cache.ClearUser(userID)
}
