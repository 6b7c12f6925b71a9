// Qupid - Dating Conversation Coaching API
// Copyright 2026 big-teddy
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/big-teddy/Qupid

// Package memory is an in-process storage.Backend for development and tests.
// Values are copied on the way in and out so callers never share state with
// the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/big-teddy/Qupid-sub001/internal/models"
	"github.com/big-teddy/Qupid-sub001/internal/storage"
)

// Store implements storage.Backend with mutex guarded maps.
type Store struct {
	mu sync.RWMutex

	personas      map[string]*models.Persona
	users         map[string]*models.UserProfile
	conversations map[string]*models.Conversation
	messages      map[string][]*models.Message
	sessions      map[string]*models.CoachingSession
	stats         map[string]*models.GrowthStats
	weekly        map[string]map[string]models.WeeklyPoint
	statsKeys     map[string]map[string]struct{}
	notifications map[string]*models.Notification
	badges        map[string]*models.Badge
	userBadges    map[string]map[string]time.Time
	surveys       map[string]*models.SurveyResponse
}

var _ storage.Backend = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		personas:      make(map[string]*models.Persona),
		users:         make(map[string]*models.UserProfile),
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]*models.Message),
		sessions:      make(map[string]*models.CoachingSession),
		stats:         make(map[string]*models.GrowthStats),
		weekly:        make(map[string]map[string]models.WeeklyPoint),
		statsKeys:     make(map[string]map[string]struct{}),
		notifications: make(map[string]*models.Notification),
		badges:        make(map[string]*models.Badge),
		userBadges:    make(map[string]map[string]time.Time),
		surveys:       make(map[string]*models.SurveyResponse),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

func newID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC() }

func limitTail[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[len(items)-limit:]
	}
	return items
}

func limitHead[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// --- PersonaStore ---

func clonePersona(p *models.Persona) *models.Persona {
	c := *p
	c.Interests = append([]string(nil), p.Interests...)
	c.Tags = append([]string(nil), p.Tags...)
	return &c
}

func (s *Store) ListPersonas(_ context.Context, filter models.PersonaFilter) ([]*models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Persona, 0, len(s.personas))
	for _, p := range s.personas {
		if filter.Matches(p) {
			out = append(out, clonePersona(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetPersona(_ context.Context, id string) (*models.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personas[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePersona(p), nil
}

func (s *Store) CreatePersona(_ context.Context, p *models.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := s.personas[p.ID]; exists {
		return storage.ErrConflict
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	s.personas[p.ID] = clonePersona(p)
	return nil
}

func (s *Store) UpdatePersona(_ context.Context, p *models.Persona) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.personas[p.ID]
	if !ok {
		return storage.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	s.personas[p.ID] = clonePersona(p)
	return nil
}

func (s *Store) DeletePersona(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.personas[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.personas, id)
	return nil
}

// --- UserStore ---

func cloneUser(u *models.UserProfile) *models.UserProfile {
	c := *u
	c.Interests = append([]string(nil), u.Interests...)
	if u.LastActiveAt != nil {
		t := *u.LastActiveAt
		c.LastActiveAt = &t
	}
	return &c
}

func (s *Store) GetUser(_ context.Context, id string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) UpsertUser(_ context.Context, u *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := now()
	if existing, ok := s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
		if u.LastActiveAt == nil {
			u.LastActiveAt = existing.LastActiveAt
		}
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = ts
	}
	u.UpdatedAt = ts
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) TouchUser(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	at = at.UTC()
	u, ok := s.users[id]
	if !ok {
		u = &models.UserProfile{ID: id, CreatedAt: at, UpdatedAt: at}
		s.users[id] = u
	}
	u.LastActiveAt = &at
	return nil
}

func (s *Store) ListInactiveUsers(_ context.Context, cutoff time.Time) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserProfile
	for _, u := range s.users {
		if u.LastActiveAt != nil && u.LastActiveAt.Before(cutoff) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- ConversationStore ---

func cloneConversation(c *models.Conversation) *models.Conversation {
	cp := *c
	if c.EndedAt != nil {
		t := *c.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func (s *Store) CreateConversation(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.StartedAt.IsZero() {
		c.StartedAt = now()
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	s.conversations[c.ID] = cloneConversation(c)
	return nil
}

func (s *Store) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneConversation(c), nil
}

func (s *Store) ListConversations(_ context.Context, userID string, limit int) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, cloneConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return limitHead(out, limit), nil
}

func (s *Store) UpdateConversationStatus(_ context.Context, id string, status models.ConversationStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return storage.ErrNotFound
	}
	if c.Status == status {
		return storage.ErrConflict
	}
	c.Status = status
	if status == models.StatusEnded {
		t := at.UTC()
		c.EndedAt = &t
	} else {
		c.EndedAt = nil
	}
	return nil
}

func (s *Store) SetTutorialStep(_ context.Context, id string, step int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.TutorialStep = step
	return nil
}

func (s *Store) IncrementMessageCount(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.MessageCount += delta
	return nil
}

// --- MessageStore ---

func (s *Store) AppendMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[m.ConversationID]; !ok {
		return storage.ErrNotFound
	}
	if m.ID == "" {
		m.ID = newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	cp := *m
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], &cp)
	return nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := limitTail(s.messages[conversationID], limit)
	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

func (s *Store) CountMessages(_ context.Context, conversationID string, sender models.Sender) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages[conversationID] {
		if sender == "" || m.Sender == sender {
			n++
		}
	}
	return n, nil
}

// --- CoachingStore ---

func cloneSession(cs *models.CoachingSession) *models.CoachingSession {
	cp := *cs
	if cs.Feedback != nil {
		fb := *cs.Feedback
		fb.Strengths = append([]string(nil), cs.Feedback.Strengths...)
		fb.Improvements = append([]string(nil), cs.Feedback.Improvements...)
		cp.Feedback = &fb
	}
	if cs.EndedAt != nil {
		t := *cs.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

func (s *Store) CreateSession(_ context.Context, cs *models.CoachingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs.ID == "" {
		cs.ID = newID()
	}
	if cs.StartedAt.IsZero() {
		cs.StartedAt = now()
	}
	if cs.Status == "" {
		cs.Status = models.SessionActive
	}
	s.sessions[cs.ID] = cloneSession(cs)
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*models.CoachingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneSession(cs), nil
}

func (s *Store) ListSessions(_ context.Context, userID string, limit int) ([]*models.CoachingSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CoachingSession
	for _, cs := range s.sessions {
		if cs.UserID == userID {
			out = append(out, cloneSession(cs))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return limitHead(out, limit), nil
}

func (s *Store) CompleteSession(_ context.Context, id string, fb *models.Feedback, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	if cs.Status == models.SessionCompleted {
		return storage.ErrConflict
	}
	t := at.UTC()
	cs.Status = models.SessionCompleted
	cs.EndedAt = &t
	cs.Feedback = cloneSession(&models.CoachingSession{Feedback: fb}).Feedback
	return nil
}

// --- StatsStore ---

func (s *Store) GetStats(_ context.Context, userID string) (*models.GrowthStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *Store) SaveStats(_ context.Context, st *models.GrowthStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = now()
	cp := *st
	s.stats[st.UserID] = &cp
	return nil
}

func (s *Store) ApplyStats(_ context.Context, userID, key string, fn storage.StatsUpdate) (*models.GrowthStats, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &models.GrowthStats{UserID: userID}
	if cur, ok := s.stats[userID]; ok {
		cp := *cur
		st = &cp
	}
	if key != "" {
		if _, done := s.statsKeys[userID][key]; done {
			return st, false, nil
		}
	}

	point := fn(st)
	st.UserID = userID
	st.UpdatedAt = now()
	cp := *st
	s.stats[userID] = &cp
	if point != nil {
		s.addWeeklyLocked(userID, *point)
	}
	if key != "" {
		keys, ok := s.statsKeys[userID]
		if !ok {
			keys = make(map[string]struct{})
			s.statsKeys[userID] = keys
		}
		keys[key] = struct{}{}
	}
	return st, true, nil
}

func (s *Store) AddWeekly(_ context.Context, userID string, p models.WeeklyPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addWeeklyLocked(userID, p)
	return nil
}

func (s *Store) addWeeklyLocked(userID string, p models.WeeklyPoint) {
	weeks, ok := s.weekly[userID]
	if !ok {
		weeks = make(map[string]models.WeeklyPoint)
		s.weekly[userID] = weeks
	}
	if existing, ok := weeks[p.WeekStart]; ok {
		p = models.MergeWeekly(existing, p)
	}
	weeks[p.WeekStart] = p
}

func (s *Store) Weekly(_ context.Context, userID string, weeks int) ([]models.WeeklyPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WeeklyPoint, 0, len(s.weekly[userID]))
	for _, p := range s.weekly[userID] {
		out = append(out, p)
	}
	// WeekStart is YYYY-MM-DD so lexical order is chronological.
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return limitTail(out, weeks), nil
}

// --- NotificationStore ---

func (s *Store) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limitHead(out, limit), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (s *Store) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) HasNotificationSince(_ context.Context, userID string, kind models.NotificationKind, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications {
		if n.UserID == userID && n.Kind == kind && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// --- BadgeStore ---

func (s *Store) ListBadges(_ context.Context) ([]*models.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Badge, 0, len(s.badges))
	for _, b := range s.badges {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpsertBadge(_ context.Context, b *models.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.badges[b.ID] = &cp
	return nil
}

func (s *Store) UserBadges(_ context.Context, userID string) ([]*models.UserBadge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserBadge, 0, len(s.userBadges[userID]))
	for id, at := range s.userBadges[userID] {
		out = append(out, &models.UserBadge{UserID: userID, BadgeID: id, AcquiredAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcquiredAt.Before(out[j].AcquiredAt) })
	return out, nil
}

func (s *Store) AwardBadge(_ context.Context, userID, badgeID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.badges[badgeID]; !ok {
		return false, storage.ErrNotFound
	}
	awarded, ok := s.userBadges[userID]
	if !ok {
		awarded = make(map[string]time.Time)
		s.userBadges[userID] = awarded
	}
	if _, exists := awarded[badgeID]; exists {
		return false, nil
	}
	awarded[badgeID] = at.UTC()
	return true, nil
}

// --- SurveyStore ---

func cloneSurvey(r *models.SurveyResponse) *models.SurveyResponse {
	cp := *r
	cp.Answers = make(map[string]interface{}, len(r.Answers))
	for k, v := range r.Answers {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}
		cp.Answers[k] = v
	}
	return &cp
}

func (s *Store) SaveSurvey(_ context.Context, r *models.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = now()
	}
	s.surveys[r.UserID] = cloneSurvey(r)
	return nil
}

func (s *Store) GetSurvey(_ context.Context, userID string) (*models.SurveyResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.surveys[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneSurvey(r), nil
}
