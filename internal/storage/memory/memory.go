// Package memory is a process-local Store used by tests and by the
// "memory" data backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/storage"

	"github.com/shopspring/decimal"
)

var _ storage.Store = (*Store)(nil)

type overrideKey struct {
	expenseID int64
	period    core.Period
}

type Store struct {
	mu        sync.Mutex
	nextID    int64
	expenses  map[int64]core.RecurringExpense
	overrides map[overrideKey]decimal.Decimal
	payments  []core.Payment
	groups    map[int64]core.ExpenseGroup
	// members keeps every link ever made, including those of inactive groups.
	members map[int64][]int64
}

func New() *Store {
	return &Store{
		expenses:  make(map[int64]core.RecurringExpense),
		overrides: make(map[overrideKey]decimal.Decimal),
		groups:    make(map[int64]core.ExpenseGroup),
		members:   make(map[int64][]int64),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateExpense(_ context.Context, e core.RecurringExpense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.expenses[e.ID] = e
	return e.ID, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return e, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, activeOnly bool) ([]core.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringExpense
	for _, e := range s.expenses {
		if activeOnly && !e.Active {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.RecurringExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.expenses[e.ID]
	if !ok {
		return fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
	}
	e.Active, e.CreatedAt = old.Active, old.CreatedAt
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) SetExpenseActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	e.Active = active
	s.expenses[id] = e
	return nil
}

func (s *Store) GetOverride(_ context.Context, expenseID int64, p core.Period) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, ok := s.overrides[overrideKey{expenseID, p}]
	return amount, ok, nil
}

func (s *Store) UpsertOverride(_ context.Context, o core.MonthlyAmountOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[o.ExpenseID]; !ok {
		return fmt.Errorf("expense %d: %w", o.ExpenseID, core.ErrNotFound)
	}
	s.overrides[overrideKey{o.ExpenseID, o.Period}] = o.Amount
	return nil
}

func (s *Store) ListOverrides(_ context.Context, p core.Period) (map[int64]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]decimal.Decimal)
	for k, v := range s.overrides {
		if k.period == p {
			out[k.expenseID] = v
		}
	}
	return out, nil
}

func matches(p core.Payment, f storage.PaymentFilter) bool {
	if p.Period != f.Period {
		return false
	}
	if f.ExpenseID != 0 && p.ExpenseID != f.ExpenseID {
		return false
	}
	if f.Payer != "" && p.Payer != f.Payer {
		return false
	}
	if f.Week != nil && (p.Week == nil || *p.Week != *f.Week) {
		return false
	}
	return true
}

func (s *Store) CreatePayment(_ context.Context, p core.Payment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[p.ExpenseID]; !ok {
		return 0, fmt.Errorf("expense %d: %w", p.ExpenseID, core.ErrNotFound)
	}
	p.ID = s.id()
	if p.PaidOn.IsZero() {
		p.PaidOn = time.Now()
	}
	p.ExpenseLabel = ""
	s.payments = append(s.payments, p)
	return p.ID, nil
}

func (s *Store) ListPayments(_ context.Context, f storage.PaymentFilter) ([]core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Payment
	for _, p := range s.payments {
		if matches(p, f) {
			p.ExpenseLabel = s.expenses[p.ExpenseID].Label
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PaidOn.Equal(out[j].PaidOn) {
			return out[i].PaidOn.After(out[j].PaidOn)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CountPayments(_ context.Context, f storage.PaymentFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.payments {
		if matches(p, f) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeletePayment(_ context.Context, id int64) (core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.payments {
		if p.ID == id {
			s.payments = append(s.payments[:i], s.payments[i+1:]...)
			return p, nil
		}
	}
	return core.Payment{}, fmt.Errorf("payment %d: %w", id, core.ErrNotFound)
}

func (s *Store) DeletePayments(_ context.Context, f storage.PaymentFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.payments[:0]
	deleted := 0
	for _, p := range s.payments {
		if matches(p, f) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	s.payments = kept
	return deleted, nil
}

func (s *Store) PaymentTotals(_ context.Context) ([]core.MonthlyTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPeriod := make(map[core.Period]*core.MonthlyTotal)
	for _, p := range s.payments {
		t, ok := byPeriod[p.Period]
		if !ok {
			t = &core.MonthlyTotal{Period: p.Period}
			byPeriod[p.Period] = t
		}
		if p.Payer == core.PayerB {
			t.Paid.B = t.Paid.B.Add(p.Amount)
		} else {
			t.Paid.A = t.Paid.A.Add(p.Amount)
		}
	}
	out := make([]core.MonthlyTotal, 0, len(byPeriod))
	for _, t := range byPeriod {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period.String() < out[j].Period.String()
	})
	return out, nil
}

// activeGroupOf must be called with s.mu held.
func (s *Store) activeGroupOf(expenseID int64) (int64, bool) {
	for gid, ids := range s.members {
		if s.groups[gid].Active && containsID(ids, expenseID) {
			return gid, true
		}
	}
	return 0, false
}

// checkJoinable must be called with s.mu held.
func (s *Store) checkJoinable(expenseID int64) error {
	e, ok := s.expenses[expenseID]
	if !ok || !e.Active {
		return fmt.Errorf("expense %d: %w", expenseID, core.ErrNotFound)
	}
	if gid, ok := s.activeGroupOf(expenseID); ok {
		return fmt.Errorf("expense %d already belongs to group %d: %w", expenseID, gid, core.ErrConflict)
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// link must be called with s.mu held.
func (s *Store) link(groupID, expenseID int64) {
	if !containsID(s.members[groupID], expenseID) {
		s.members[groupID] = append(s.members[groupID], expenseID)
	}
	e := s.expenses[expenseID]
	e.Distribution = core.GroupedSplit{GroupID: groupID}
	s.expenses[expenseID] = e
}

func (s *Store) CreateGroup(_ context.Context, g core.ExpenseGroup) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range g.MemberIDs {
		if err := s.checkJoinable(id); err != nil {
			return 0, err
		}
	}
	g.ID = s.id()
	g.Active = true
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	members := g.MemberIDs
	g.MemberIDs = nil
	s.groups[g.ID] = g
	for _, id := range members {
		s.link(g.ID, id)
	}
	return g.ID, nil
}

// withMembers must be called with s.mu held.
func (s *Store) withMembers(g core.ExpenseGroup) core.ExpenseGroup {
	g.MemberIDs = nil
	for _, id := range s.members[g.ID] {
		if s.expenses[id].Active {
			g.MemberIDs = append(g.MemberIDs, id)
		}
	}
	sort.Slice(g.MemberIDs, func(i, j int) bool { return g.MemberIDs[i] < g.MemberIDs[j] })
	return g
}

func (s *Store) GetGroup(_ context.Context, id int64) (core.ExpenseGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return g, fmt.Errorf("group %d: %w", id, core.ErrNotFound)
	}
	return s.withMembers(g), nil
}

func (s *Store) ListGroups(_ context.Context) ([]core.ExpenseGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ExpenseGroup
	for _, g := range s.groups {
		if g.Active {
			out = append(out, s.withMembers(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) activeGroup(id int64) (core.ExpenseGroup, error) {
	g, ok := s.groups[id]
	if !ok || !g.Active {
		return g, fmt.Errorf("group %d: %w", id, core.ErrNotFound)
	}
	return g, nil
}

func (s *Store) UpdateGroup(_ context.Context, g core.ExpenseGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, err := s.activeGroup(g.ID)
	if err != nil {
		return err
	}
	old.Name = strings.TrimSpace(g.Name)
	old.Description = g.Description
	old.FixedPayer = g.FixedPayer
	old.FixedAmount = g.FixedAmount
	s.groups[g.ID] = old
	return nil
}

func (s *Store) AddGroupMember(_ context.Context, groupID, expenseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.activeGroup(groupID); err != nil {
		return err
	}
	if err := s.checkJoinable(expenseID); err != nil {
		return err
	}
	s.link(groupID, expenseID)
	return nil
}

func (s *Store) revert(expenseID int64) {
	e := s.expenses[expenseID]
	if e.IsGrouped() {
		e.Distribution = core.EqualSplit{}
		s.expenses[expenseID] = e
	}
}

func (s *Store) RemoveGroupMember(_ context.Context, groupID, expenseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.activeGroup(groupID); err != nil {
		return err
	}
	ids := s.members[groupID]
	for i, id := range ids {
		if id == expenseID {
			s.members[groupID] = append(ids[:i:i], ids[i+1:]...)
			s.revert(expenseID)
			return nil
		}
	}
	return fmt.Errorf("group member %d: %w", expenseID, core.ErrNotFound)
}

func (s *Store) DeactivateGroup(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.activeGroup(id)
	if err != nil {
		return err
	}
	g.Active = false
	s.groups[id] = g
	for _, expenseID := range s.members[id] {
		s.revert(expenseID)
	}
	return nil
}
