package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/storage"
)

// GroupService manages expense groups. A group replaces the split of its
// members with one fixed contribution applied to their combined total.
type GroupService struct {
	groups storage.GroupStore
	events ExportPublisher
	now    func() time.Time
}

func NewGroupService(groups storage.GroupStore, events ExportPublisher) *GroupService {
	return &GroupService{groups: groups, events: events, now: time.Now}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Create inserts the group and links its members atomically.
func (s *GroupService) Create(ctx context.Context, g core.ExpenseGroup) (core.ExpenseGroup, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Active = true
	g.MemberIDs = dedupe(g.MemberIDs)
	if err := g.Validate(); err != nil {
		return g, err
	}

	id, err := s.groups.CreateGroup(ctx, g)
	if err != nil {
		return g, fmt.Errorf("create group: %w", err)
	}
	g.ID = id

	s.changed(ctx, "group_created")
	return g, nil
}

func (s *GroupService) Get(ctx context.Context, id int64) (core.ExpenseGroup, error) {
	return s.groups.GetGroup(ctx, id)
}

func (s *GroupService) List(ctx context.Context) ([]core.ExpenseGroup, error) {
	return s.groups.ListGroups(ctx)
}

// Update changes name, description and the fixed contribution.
func (s *GroupService) Update(ctx context.Context, g core.ExpenseGroup) (core.ExpenseGroup, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return g, err
	}
	if err := s.groups.UpdateGroup(ctx, g); err != nil {
		return g, fmt.Errorf("update group: %w", err)
	}
	s.changed(ctx, "group_updated")
	return s.groups.GetGroup(ctx, g.ID)
}

func (s *GroupService) AddMember(ctx context.Context, groupID, expenseID int64) error {
	if err := s.groups.AddGroupMember(ctx, groupID, expenseID); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}
	s.changed(ctx, "group_member_added")
	return nil
}

// RemoveMember detaches the expense, which falls back to an equal split.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, expenseID int64) error {
	if err := s.groups.RemoveGroupMember(ctx, groupID, expenseID); err != nil {
		return fmt.Errorf("remove group member: %w", err)
	}
	s.changed(ctx, "group_member_removed")
	return nil
}

// Delete soft deletes the group; its members fall back to an equal split.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.groups.DeactivateGroup(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.changed(ctx, "group_deleted")
	return nil
}

func (s *GroupService) changed(ctx context.Context, reason string) {
	requestExport(ctx, s.events, core.NewPeriod(s.now()), reason)
}
