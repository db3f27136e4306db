package group

import (
	"context"

	"go-social/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileLookup resolves user ids to public profiles
type ProfileLookup interface {
	LookupProfiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]user.Profile, error)
}

type presenter struct {
	profiles ProfileLookup
}

// views populates creator profiles for a list of groups with one lookup
func (p presenter) views(ctx context.Context, groups []Group) ([]GroupView, error) {
	ids := make([]primitive.ObjectID, 0, len(groups))
	for i := range groups {
		if groups[i].HasCreator() {
			ids = append(ids, groups[i].Creator)
		}
	}
	profiles, err := p.profiles.LookupProfiles(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		view := GroupView{Group: g}
		if g.HasCreator() {
			creator := profiles[g.Creator]
			view.CreatorProfile = &creator
		}
		views = append(views, view)
	}
	return views, nil
}

// detail populates creator, members and pending requests of a single group
func (p presenter) detail(ctx context.Context, g *Group) (*GroupView, error) {
	ids := make([]primitive.ObjectID, 0, len(g.Members)+len(g.PendingRequests)+1)
	ids = append(ids, g.Participants()...)
	for _, r := range g.PendingRequests {
		ids = append(ids, r.UserID)
	}
	profiles, err := p.profiles.LookupProfiles(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	view := &GroupView{
		Group:                 *g,
		MemberProfiles:        make([]user.Profile, 0, len(g.Members)),
		PendingRequestDetails: make([]PendingRequestView, 0, len(g.PendingRequests)),
	}
	if g.HasCreator() {
		creator := profiles[g.Creator]
		view.CreatorProfile = &creator
	}
	for _, id := range g.Members {
		view.MemberProfiles = append(view.MemberProfiles, profiles[id])
	}
	for _, r := range g.PendingRequests {
		view.PendingRequestDetails = append(view.PendingRequestDetails, PendingRequestView{
			UserID:      r.UserID,
			RequestedAt: r.RequestedAt,
			User:        profiles[r.UserID],
		})
	}
	return view, nil
}

// members lists the member profiles; a creator missing from members is listed first
func (p presenter) members(ctx context.Context, g *Group) (*MemberList, error) {
	ids := g.Participants()
	profiles, err := p.profiles.LookupProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	list := &MemberList{
		GroupID:   g.ID,
		GroupName: g.Name,
		Members:   make([]MemberView, 0, len(ids)),
		IsPrivate: g.IsPrivate,
	}
	if g.HasCreator() {
		creator := g.Creator
		list.CreatorID = &creator
		if !g.IsMember(creator) {
			list.Members = append(list.Members, MemberView{Profile: profiles[creator], IsCreator: true})
		}
	}
	for _, id := range uniqueIDs(g.Members) {
		list.Members = append(list.Members, MemberView{Profile: profiles[id], IsCreator: g.IsCreator(id)})
	}
	list.TotalMembers = len(list.Members)
	return list, nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
