// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

package cache

import (
	"context"
	"time"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

// PersonaStore caches reads of an underlying storage.PersonaStore. Any
// write clears the whole cache since list results depend on every row.
//
// Cached values are copied on the way out so callers may mutate them.
type PersonaStore struct {
	next  storage.PersonaStore
	byID  *Cache[*models.Persona]
	lists *Cache[[]*models.Persona]
}

var _ storage.PersonaStore = (*PersonaStore)(nil)

// NewPersonaStore wraps next with a cache of the given TTL.
func NewPersonaStore(next storage.PersonaStore, ttl time.Duration) *PersonaStore {
	return &PersonaStore{
		next:  next,
		byID:  New[*models.Persona](ttl),
		lists: New[[]*models.Persona](ttl),
	}
}

func copyPersona(p *models.Persona) *models.Persona {
	c := *p
	c.Interests = append([]string(nil), p.Interests...)
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

func (s *PersonaStore) GetPersona(ctx context.Context, id string) (*models.Persona, error) {
	if p, ok := s.byID.Get(id); ok {
		return copyPersona(p), nil
	}
	p, err := s.next.GetPersona(ctx, id)
	if err != nil {
		return nil, err
	}
	s.byID.Set(id, copyPersona(p))
	return p, nil
}

func (s *PersonaStore) ListPersonas(ctx context.Context, filter models.PersonaFilter) ([]*models.Persona, error) {
	key := GenerateKey("personas", filter)
	if list, ok := s.lists.Get(key); ok {
		out := make([]*models.Persona, len(list))
		for i, p := range list {
			out[i] = copyPersona(p)
		}
		return out, nil
	}
	list, err := s.next.ListPersonas(ctx, filter)
	if err != nil {
		return nil, err
	}
	cached := make([]*models.Persona, len(list))
	for i, p := range list {
		cached[i] = copyPersona(p)
	}
	s.lists.Set(key, cached)
	return list, nil
}

func (s *PersonaStore) CreatePersona(ctx context.Context, p *models.Persona) error {
	defer s.Invalidate()
	return s.next.CreatePersona(ctx, p)
}

func (s *PersonaStore) UpdatePersona(ctx context.Context, p *models.Persona) error {
	defer s.Invalidate()
	return s.next.UpdatePersona(ctx, p)
}

func (s *PersonaStore) DeletePersona(ctx context.Context, id string) error {
	defer s.Invalidate()
	return s.next.DeletePersona(ctx, id)
}

// Invalidate drops every cached persona and list.
func (s *PersonaStore) Invalidate() {
	s.byID.Clear()
	s.lists.Clear()
}

// Stats returns the by-ID cache counters.
func (s *PersonaStore) Stats() Stats {
	return s.byID.Stats()
}

// Serve removes expired entries periodically. It implements suture.Service.
func (s *PersonaStore) Serve(ctx context.Context) error {
	const interval = 5 * time.Minute
	errCh := make(chan error, 1)
	go func() { errCh <- s.lists.Run(ctx, interval) }()
	err := s.byID.Run(ctx, interval)
	<-errCh
	return err
}

func (s *PersonaStore) String() string {
	return "persona-cache"
}
