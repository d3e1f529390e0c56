package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"
)

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentDecided  = errors.New("payment already decided")
)

// document is the full on-disk state: a single JSON file with one
// top-level section per entity. It is always loaded and saved whole.
type document struct {
	Users           map[string]*User              `json:"users"`
	Banned          []int64                       `json:"banned"`
	Plans           []*Plan                       `json:"plans"`
	PendingPayments []*PendingPayment             `json:"pending_payments"`
	ClonedBots      map[string]*CloneRegistration `json:"cloned_bots"`
	MessageMap      map[string]int64              `json:"message_map"`
	Greetings       []string                      `json:"greetings"`
}

// Store owns the document. Every operation runs under one lock so a
// read-modify-write-persist cycle can never interleave with another.
type Store struct {
	mu   sync.Mutex
	path string
	doc  document

	// id counters are seeded from the highest persisted id and only
	// ever grow, so deleting a plan never frees its id for reuse
	nextPlanID    int
	nextPaymentID int
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, nextPlanID: 1, nextPaymentID: 1}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		s.doc = defaultDocument()
		if err := s.save(); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if s.doc.Users == nil {
		s.doc.Users = make(map[string]*User)
	}
	if s.doc.ClonedBots == nil {
		s.doc.ClonedBots = make(map[string]*CloneRegistration)
	}
	if s.doc.MessageMap == nil {
		s.doc.MessageMap = make(map[string]int64)
	}

	for _, p := range s.doc.Plans {
		if p.ID >= s.nextPlanID {
			s.nextPlanID = p.ID + 1
		}
	}
	for _, p := range s.doc.PendingPayments {
		if p.ID >= s.nextPaymentID {
			s.nextPaymentID = p.ID + 1
		}
	}

	return s, nil
}

func defaultDocument() document {
	return document{
		Users:      make(map[string]*User),
		ClonedBots: make(map[string]*CloneRegistration),
		MessageMap: make(map[string]int64),
		Greetings: []string{
			"✅ Message sent to owner!",
			"✨ Your message has been forwarded!",
			"📨 Message delivered successfully!",
			"👍 Owner will see your message!",
			"🎯 Message sent! Owner will reply soon!",
			"💬 Your message is on its way!",
			"✉️ Successfully sent to owner!",
			"🚀 Message delivered!",
			"📬 Owner has received your message!",
		},
	}
}

// save serializes the whole document and swaps it in atomically.
// Callers must hold s.mu. Any failure propagates unchanged - there is
// no retry, the triggering operation fails loudly.
func (s *Store) save() error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// UpsertUser registers a user on first contact. Repeat visits are a
// no-op: profile fields are first-write-wins.
func (s *Store) UpsertUser(id int64, username, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := userKey(id)
	if _, ok := s.doc.Users[key]; ok {
		return nil
	}

	s.doc.Users[key] = &User{
		ID:       id,
		Username: username,
		Name:     name,
		Joined:   time.Now(),
		Active:   true,
	}
	return s.save()
}

func (s *Store) GetUser(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.doc.Users[userKey(id)]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// SetBanned adds or removes a user from the ban set. Idempotent. The
// per-user Active flag is kept in sync but the ban set stays the
// source of truth for filtering.
func (s *Store) SetBanned(id int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, b := range s.doc.Banned {
		if b == id {
			idx = i
			break
		}
	}

	changed := false
	if banned && idx < 0 {
		s.doc.Banned = append(s.doc.Banned, id)
		changed = true
	}
	if !banned && idx >= 0 {
		s.doc.Banned = append(s.doc.Banned[:idx], s.doc.Banned[idx+1:]...)
		changed = true
	}

	if u, ok := s.doc.Users[userKey(id)]; ok && u.Active == banned {
		u.Active = !banned
		changed = true
	}

	if !changed {
		return nil
	}
	return s.save()
}

func (s *Store) IsBanned(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bannedLocked(id)
}

func (s *Store) bannedLocked(id int64) bool {
	for _, b := range s.doc.Banned {
		if b == id {
			return true
		}
	}
	return false
}

func (s *Store) ListUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersLocked(func(int64) bool { return true })
}

// ListActive recomputes membership from the ban set rather than
// trusting the stored Active flag.
func (s *Store) ListActive() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersLocked(func(id int64) bool { return !s.bannedLocked(id) })
}

func (s *Store) ListBanned() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersLocked(s.bannedLocked)
}

func (s *Store) usersLocked(keep func(int64) bool) []User {
	users := make([]User, 0, len(s.doc.Users))
	for _, u := range s.doc.Users {
		if keep(u.ID) {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Joined.Before(users[j].Joined) })
	return users
}

func (s *Store) CreatePlan(days, price int, upi string) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := &Plan{
		ID:      s.nextPlanID,
		Days:    days,
		Price:   price,
		UPI:     upi,
		Created: time.Now(),
	}
	s.nextPlanID++
	s.doc.Plans = append(s.doc.Plans, plan)

	if err := s.save(); err != nil {
		return Plan{}, err
	}
	return *plan, nil
}

func (s *Store) Plans() []Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := make([]Plan, 0, len(s.doc.Plans))
	for _, p := range s.doc.Plans {
		plans = append(plans, *p)
	}
	return plans
}

func (s *Store) GetPlan(id int) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.doc.Plans {
		if p.ID == id {
			return *p, nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

func (s *Store) DeletePlan(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.doc.Plans {
		if p.ID == id {
			s.doc.Plans = append(s.doc.Plans[:i], s.doc.Plans[i+1:]...)
			return s.save()
		}
	}
	return ErrPlanNotFound
}

// CreatePendingPayment snapshots the plan's days and price so the
// payment record survives a later DeletePlan.
func (s *Store) CreatePendingPayment(userID int64, planID int, screenshot string) (PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var plan *Plan
	for _, p := range s.doc.Plans {
		if p.ID == planID {
			plan = p
			break
		}
	}
	if plan == nil {
		return PendingPayment{}, ErrPlanNotFound
	}

	payment := &PendingPayment{
		ID:         s.nextPaymentID,
		UserID:     userID,
		PlanID:     planID,
		PlanDays:   plan.Days,
		PlanPrice:  plan.Price,
		Screenshot: screenshot,
		Created:    time.Now(),
		Status:     PaymentPending,
	}
	s.nextPaymentID++
	s.doc.PendingPayments = append(s.doc.PendingPayments, payment)

	if err := s.save(); err != nil {
		return PendingPayment{}, err
	}
	return *payment, nil
}

func (s *Store) PendingPayments() []PendingPayment {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]PendingPayment, 0)
	for _, p := range s.doc.PendingPayments {
		if p.Status == PaymentPending {
			pending = append(pending, *p)
		}
	}
	return pending
}

// DecidePayment is a one-shot transition: once a payment has left the
// pending state a second decision fails with ErrPaymentDecided.
func (s *Store) DecidePayment(id int, status PaymentStatus) (PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.doc.PendingPayments {
		if p.ID != id {
			continue
		}
		if p.Status != PaymentPending {
			return *p, ErrPaymentDecided
		}
		p.Status = status
		if err := s.save(); err != nil {
			return PendingPayment{}, err
		}
		return *p, nil
	}
	return PendingPayment{}, ErrPaymentNotFound
}

// RegisterClone overwrites any previous registration for the user.
func (s *Store) RegisterClone(userID int64, token string, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.doc.ClonedBots[userKey(userID)] = &CloneRegistration{
		BotToken: token,
		Created:  now,
		Expiry:   now.AddDate(0, 0, days),
		PlanDays: days,
		Active:   true,
	}
	return s.save()
}

// GetClone returns the user's registration if it is still live. An
// expired registration is deactivated and persisted as a side effect
// of the read; nil means no live clone.
func (s *Store) GetClone(userID int64) (*CloneRegistration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone, ok := s.doc.ClonedBots[userKey(userID)]
	if !ok || !clone.Active {
		return nil, nil
	}
	if time.Now().After(clone.Expiry) {
		clone.Active = false
		if err := s.save(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	out := *clone
	return &out, nil
}

// RecordCorrelation ties a message delivered to the owner back to the
// user it came from. Entries are append-only and never pruned; many
// message ids mapping to one user is expected.
func (s *Store) RecordCorrelation(messageID int, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.MessageMap[strconv.Itoa(messageID)] = userID
	return s.save()
}

func (s *Store) ResolveCorrelation(messageID int) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.doc.MessageMap[strconv.Itoa(messageID)]
	return userID, ok
}

func (s *Store) Greeting() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.doc.Greetings) == 0 {
		return "✅ Message sent to owner!"
	}
	return s.doc.Greetings[rand.IntN(len(s.doc.Greetings))]
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Users:  len(s.doc.Users),
		Banned: len(s.doc.Banned),
		Plans:  len(s.doc.Plans),
	}
	for _, u := range s.doc.Users {
		if !s.bannedLocked(u.ID) {
			st.Active++
		}
	}
	for _, p := range s.doc.PendingPayments {
		if p.Status == PaymentPending {
			st.PendingPayments++
		}
	}
	for _, c := range s.doc.ClonedBots {
		if c.Active {
			st.ActiveClones++
		}
	}
	return st
}
