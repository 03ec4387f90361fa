package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/password"
	"github.com/taskdesk/task-system/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	byID      map[string]*domain.Identity
	createErr error
	findErr   error
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byID: make(map[string]*domain.Identity)}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Roles = append([]string(nil), i.Roles...)
	return &clone
}

// Create mirrors the unique indexes on the normalized keys.
func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if domain.NormalizeKey(existing.Email) == domain.NormalizeKey(identity.Email) {
			return domain.ErrDuplicateEmail
		}
		if domain.NormalizeKey(existing.Username) == domain.NormalizeKey(identity.Username) {
			return domain.ErrDuplicateUsername
		}
	}
	r.byID[identity.ID] = cloneIdentity(identity)
	return nil
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	identity, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneIdentity(identity), nil
}

func (r *stubIdentityRepo) FindByNormalizedEmail(_ context.Context, key string) (*domain.Identity, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, identity := range r.byID {
		if domain.NormalizeKey(identity.Email) == key {
			return cloneIdentity(identity), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) FindByNormalizedUsername(_ context.Context, key string) (*domain.Identity, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, identity := range r.byID {
		if domain.NormalizeKey(identity.Username) == key {
			return cloneIdentity(identity), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) List(_ context.Context) ([]*domain.Identity, error) {
	out := make([]*domain.Identity, 0, len(r.byID))
	for _, identity := range r.byID {
		out = append(out, cloneIdentity(identity))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *stubIdentityRepo) AddRole(_ context.Context, id, role string) error {
	identity, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	identity.Roles = append(identity.Roles, role)
	return nil
}

// put stores an identity directly, bypassing the credential store.
func (r *stubIdentityRepo) put(id, username string, roles ...string) *domain.Identity {
	identity := &domain.Identity{ID: id, Username: username, Email: username + "@example.com", Roles: roles}
	r.byID[id] = identity
	return cloneIdentity(identity)
}

// ---------------------------------------------------------------------------
// Lockout
// ---------------------------------------------------------------------------

type stubLockout struct {
	mu       sync.Mutex
	policy   ports.LockoutPolicy
	failures map[string]int
	until    map[string]time.Time
	now      func() time.Time
}

func newStubLockout() *stubLockout {
	return &stubLockout{
		policy:   ports.DefaultLockoutPolicy(),
		failures: make(map[string]int),
		until:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (l *stubLockout) LockedUntil(_ context.Context, id string) (time.Time, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.until[id]
	if !ok || !l.now().Before(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

func (l *stubLockout) RecordFailure(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[id]++
	if l.failures[id] >= l.policy.MaxFailedAttempts {
		l.until[id] = l.now().Add(l.policy.Duration)
		l.failures[id] = 0
		return true, nil
	}
	return false, nil
}

func (l *stubLockout) Reset(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, id)
	delete(l.until, id)
	return nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	tasks    map[string]*domain.Task
	comments map[string]*domain.Comment
	// beforeUpdate runs inside Update before the version check, simulating a
	// concurrent writer.
	beforeUpdate func()
	updateCalls  int
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{
		tasks:    make(map[string]*domain.Task),
		comments: make(map[string]*domain.Comment),
	}
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	clone := *t
	r.tasks[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) List(_ context.Context, f ports.ListTasksFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.tasks {
		if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubTaskRepo) Update(_ context.Context, t *domain.Task, expectedVersion int64) error {
	r.updateCalls++
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook()
	}
	stored, ok := r.tasks[t.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrConcurrency
	}
	clone := *t
	r.tasks[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	for cid, c := range r.comments {
		if c.TaskID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

func (r *stubTaskRepo) AddComment(_ context.Context, c *domain.Comment) error {
	if _, ok := r.tasks[c.TaskID]; !ok {
		return domain.ErrTaskNotFound
	}
	clone := *c
	r.comments[c.ID] = &clone
	return nil
}

func (r *stubTaskRepo) ListComments(_ context.Context, taskIDs ...string) ([]*domain.Comment, error) {
	want := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		want[id] = true
	}
	var out []*domain.Comment
	for _, c := range r.comments {
		if want[c.TaskID] {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Notes
// ---------------------------------------------------------------------------

type stubNoteRepo struct {
	notes map[string]*domain.Note
}

func newStubNoteRepo() *stubNoteRepo {
	return &stubNoteRepo{notes: make(map[string]*domain.Note)}
}

func (r *stubNoteRepo) Create(_ context.Context, n *domain.Note) error {
	clone := *n
	r.notes[n.ID] = &clone
	return nil
}

func (r *stubNoteRepo) FindForOwner(_ context.Context, id, ownerID string) (*domain.Note, error) {
	n, ok := r.notes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, domain.ErrNoteNotFound
	}
	clone := *n
	return &clone, nil
}

func (r *stubNoteRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Note, error) {
	var out []*domain.Note
	for _, n := range r.notes {
		if n.OwnerID == ownerID {
			clone := *n
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubNoteRepo) Update(_ context.Context, n *domain.Note) error {
	stored, ok := r.notes[n.ID]
	if !ok || stored.OwnerID != n.OwnerID {
		return domain.ErrNoteNotFound
	}
	clone := *n
	r.notes[n.ID] = &clone
	return nil
}

func (r *stubNoteRepo) Delete(_ context.Context, id, ownerID string) error {
	n, ok := r.notes[id]
	if !ok || n.OwnerID != ownerID {
		return domain.ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestCredentialStore(repo ports.IdentityRepository, lockout ports.LockoutTracker) *CredentialStore {
	return NewCredentialStore(repo, password.DefaultPolicy(), password.NewHasher(bcrypt.MinCost), lockout, discardLogger)
}

func claimsFor(identity *domain.Identity) *domain.Claims {
	return &domain.Claims{
		IdentityID: identity.ID,
		Username:   identity.Username,
		Email:      identity.Email,
		Roles:      append([]string(nil), identity.Roles...),
	}
}
