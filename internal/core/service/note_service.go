package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/authz"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

// NoteService manages personal notes. Notes are scoped to their owner at the
// repository level, so other identities, Admins included, see NotFound.
type NoteService struct {
	notes ports.NoteRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewNoteService(notes ports.NoteRepository, log zerolog.Logger) *NoteService {
	return &NoteService{notes: notes, log: log, now: time.Now}
}

func (s *NoteService) List(ctx context.Context, actor *domain.Claims) ([]ports.NoteView, error) {
	if err := authz.Check(actor, authenticated); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByOwner(ctx, actor.IdentityID)
	if err != nil {
		return nil, normalize(s.log, "list notes", err)
	}
	out := make([]ports.NoteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteView(n))
	}
	return out, nil
}

func (s *NoteService) Get(ctx context.Context, actor *domain.Claims, id string) (*ports.NoteView, error) {
	if err := authz.Check(actor, authenticated); err != nil {
		return nil, err
	}
	n, err := s.notes.FindForOwner(ctx, id, actor.IdentityID)
	if err != nil {
		return nil, normalize(s.log, "find note", err)
	}
	v := noteView(n)
	return &v, nil
}

func (s *NoteService) Create(ctx context.Context, actor *domain.Claims, in ports.NoteInput) (*ports.NoteView, error) {
	if err := authz.Check(actor, authenticated); err != nil {
		return nil, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	n := &domain.Note{
		ID:          uuid.NewString(),
		OwnerID:     actor.IdentityID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, normalize(s.log, "create note", err)
	}
	v := noteView(n)
	return &v, nil
}

func (s *NoteService) Update(ctx context.Context, actor *domain.Claims, id string, in ports.NoteInput) error {
	if err := authz.Check(actor, authenticated); err != nil {
		return err
	}
	n, err := s.notes.FindForOwner(ctx, id, actor.IdentityID)
	if err != nil {
		return normalize(s.log, "find note", err)
	}
	n.Title = strings.TrimSpace(in.Title)
	n.Description = strings.TrimSpace(in.Description)
	n.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.notes.Update(ctx, n); err != nil {
		return normalize(s.log, "update note", err)
	}
	return nil
}

func (s *NoteService) Delete(ctx context.Context, actor *domain.Claims, id string) error {
	if err := authz.Check(actor, authenticated); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, id, actor.IdentityID); err != nil {
		return normalize(s.log, "delete note", err)
	}
	return nil
}

func noteView(n *domain.Note) ports.NoteView {
	return ports.NoteView{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
