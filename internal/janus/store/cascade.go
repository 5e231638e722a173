package store

import (
	"errors"
	"fmt"

	"github.com/janus-md/janus/internal/janus/hooks"
	"github.com/janus-md/janus/internal/janus/locator"
	"github.com/janus-md/janus/internal/janus/ticket"
)

// ErrNotFound is returned by link mutation operations when a referenced
// ticket ID is not present in the store.
var ErrNotFound = errors.New("ticket not found")

// RemoveTicketWithCascade deletes a ticket's file, removes it and its
// embedding from the store, then scrubs every remaining ticket's
// deps/links of the deleted ID, rewriting their files on disk and
// refreshing their in-memory entries. Returns the IDs of tickets that
// were rewritten. The deletion itself is wrapped in pre_delete/
// post_delete hooks; the cascade rewrites of sibling tickets are not, as
// those are a side effect of this deletion rather than lifecycle events
// of their own.
func (s *Store) RemoveTicketWithCascade(id string) ([]string, error) {
	path := locator.TicketPath(s.root, id)
	preCtx := hooks.Context{Event: hooks.EventPreDelete, ItemType: hooks.ItemTicket, ItemID: id, FilePath: path}
	if err := s.runPreHook(preCtx); err != nil {
		return nil, fmt.Errorf("pre-delete hook for %s: %w", id, err)
	}

	if err := locator.RemoveFile(path); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.tickets, id)
	s.mu.Unlock()
	s.RemoveEmbedding(id)

	var touched []string
	for _, t := range s.AllTickets() {
		hadDep, hadLink := t.HasDep(id), t.HasLink(id)
		if !hadDep && !hadLink {
			continue
		}
		t.RemoveDep(id)
		t.RemoveLink(id)

		content, err := t.Render()
		if err != nil {
			return touched, fmt.Errorf("rendering %s during cascade delete of %s: %w", t.ID, id, err)
		}
		if err := locator.WriteFile(locator.TicketPath(s.root, t.ID), content); err != nil {
			return touched, fmt.Errorf("writing %s during cascade delete of %s: %w", t.ID, id, err)
		}
		s.UpsertTicket(t)
		touched = append(touched, t.ID)
	}

	s.runPostHook(hooks.Context{Event: hooks.EventPostDelete, ItemType: hooks.ItemTicket, ItemID: id, FilePath: path})

	return touched, nil
}

// AddLink establishes a symmetric link between two tickets: if A links to
// B, B links back to A. Both files are rewritten and both store entries
// refreshed.
func (s *Store) AddLink(aID, bID string) error {
	a, ok := s.GetTicket(aID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, aID)
	}
	b, ok := s.GetTicket(bID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, bID)
	}
	a.AddLink(bID)
	b.AddLink(aID)
	return s.writeBoth(a, b, "links")
}

// RemoveLink removes a symmetric link between two tickets, if present.
func (s *Store) RemoveLink(aID, bID string) error {
	a, ok := s.GetTicket(aID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, aID)
	}
	b, ok := s.GetTicket(bID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, bID)
	}
	a.RemoveLink(bID)
	b.RemoveLink(aID)
	return s.writeBoth(a, b, "links")
}

func (s *Store) writeBoth(a, b *ticket.Ticket, fieldName string) error {
	for _, t := range []*ticket.Ticket{a, b} {
		path := locator.TicketPath(s.root, t.ID)
		preCtx := hooks.Context{Event: hooks.EventPreUpdate, ItemType: hooks.ItemTicket, ItemID: t.ID, FilePath: path, FieldName: fieldName}
		if err := s.runPreHook(preCtx); err != nil {
			return fmt.Errorf("pre-update hook for %s: %w", t.ID, err)
		}

		content, err := t.Render()
		if err != nil {
			return fmt.Errorf("rendering %s: %w", t.ID, err)
		}
		if err := locator.WriteFile(path, content); err != nil {
			return fmt.Errorf("writing %s: %w", t.ID, err)
		}
		s.UpsertTicket(t)

		s.runPostHook(hooks.Context{Event: hooks.EventPostUpdate, ItemType: hooks.ItemTicket, ItemID: t.ID, FilePath: path, FieldName: fieldName})
	}
	return nil
}
