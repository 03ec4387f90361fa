package service

import (
	"context"
	"errors"
	"testing"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

func TestNoteService_OwnerScoped(t *testing.T) {
	repo := newStubNoteRepo()
	svc := NewNoteService(repo, discardLogger)
	ctx := context.Background()

	owner := &domain.Claims{IdentityID: "u1", Roles: []string{domain.RoleUser}}
	admin := &domain.Claims{IdentityID: "a1", Roles: []string{domain.RoleAdmin}}

	created, err := svc.Create(ctx, owner, ports.NoteInput{Title: " groceries ", Description: "milk"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "groceries" || created.ID == "" {
		t.Fatalf("unexpected note: %+v", created)
	}

	if _, err := svc.Get(ctx, admin, created.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound for another identity, got %v", err)
	}
	if err := svc.Update(ctx, admin, created.ID, ports.NoteInput{Title: "hijack"}); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound on foreign update, got %v", err)
	}
	if err := svc.Delete(ctx, admin, created.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound on foreign delete, got %v", err)
	}

	if err := svc.Update(ctx, owner, created.ID, ports.NoteInput{Title: "groceries", Description: "milk, eggs"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(ctx, owner, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Description != "milk, eggs" {
		t.Fatalf("update not applied: %+v", got)
	}

	list, _ := svc.List(ctx, admin)
	if len(list) != 0 {
		t.Fatalf("admin must not see other notes, got %d", len(list))
	}
	list, _ = svc.List(ctx, owner)
	if len(list) != 1 {
		t.Fatalf("expected one note, got %d", len(list))
	}

	if err := svc.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, owner, created.ID); !errors.Is(err, domain.ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound after delete, got %v", err)
	}
}

func TestNoteService_Unauthenticated(t *testing.T) {
	svc := NewNoteService(newStubNoteRepo(), discardLogger)
	if _, err := svc.List(context.Background(), nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
