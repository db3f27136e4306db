// Package grouptest provides an in-memory group repository for tests.
package grouptest

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go-social/internal/features/group"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repo mirrors the conditional updates of the Mongo repository
type Repo struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]*group.Group
}

func NewRepo(groups ...group.Group) *Repo {
	r := &Repo{groups: map[primitive.ObjectID]*group.Group{}}
	for i := range groups {
		g := groups[i]
		if g.ID.IsZero() {
			g.ID = primitive.NewObjectID()
		}
		if g.Members == nil {
			g.Members = []primitive.ObjectID{}
		}
		if g.PendingRequests == nil {
			g.PendingRequests = []group.PendingRequest{}
		}
		r.groups[g.ID] = &g
	}
	return r
}

// Get returns a copy of the stored group, or nil
func (r *Repo) Get(id primitive.ObjectID) *group.Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil
	}
	return clone(g)
}

func clone(g *group.Group) *group.Group {
	cp := *g
	cp.Members = slices.Clone(g.Members)
	cp.PendingRequests = slices.Clone(g.PendingRequests)
	return &cp
}

func (r *Repo) nameTaken(name string, exclude primitive.ObjectID) bool {
	for id, g := range r.groups {
		if id != exclude && strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}

func (r *Repo) Create(ctx context.Context, g *group.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(g.Name, primitive.NilObjectID) {
		return group.ErrDuplicateName
	}
	now := time.Now()
	g.CreatedAt, g.UpdatedAt = now, now
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	if g.Members == nil {
		g.Members = []primitive.ObjectID{}
	}
	if g.PendingRequests == nil {
		g.PendingRequests = []group.PendingRequest{}
	}
	g.MemberCount = len(g.Members)
	r.groups[g.ID] = clone(g)
	return nil
}

func (r *Repo) filter(keep func(*group.Group) bool) []group.Group {
	out := []group.Group{}
	for _, g := range r.groups {
		if keep(g) {
			out = append(out, *clone(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Repo) FindAll(ctx context.Context) ([]group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(*group.Group) bool { return true }), nil
}

func (r *Repo) FindByID(ctx context.Context, id primitive.ObjectID) (*group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, group.ErrGroupNotFound
	}
	return clone(g), nil
}

func (r *Repo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(g *group.Group) bool { return slices.Contains(ids, g.ID) }), nil
}

func (r *Repo) FindByCreator(ctx context.Context, userID primitive.ObjectID) ([]group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(g *group.Group) bool { return g.Creator == userID }), nil
}

func (r *Repo) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]group.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(g *group.Group) bool { return slices.Contains(g.Members, userID) }), nil
}

func (r *Repo) NameTaken(ctx context.Context, name string, exclude primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nameTaken(name, exclude), nil
}

func (r *Repo) Update(ctx context.Context, g *group.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.groups[g.ID]
	if !ok {
		return group.ErrGroupNotFound
	}
	if r.nameTaken(g.Name, g.ID) {
		return group.ErrDuplicateName
	}
	stored.Name = g.Name
	stored.Description = g.Description
	stored.Image = g.Image
	stored.IsPrivate = g.IsPrivate
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *Repo) SetImage(ctx context.Context, id primitive.ObjectID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return group.ErrGroupNotFound
	}
	g.Image = url
	return nil
}

func (r *Repo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return group.ErrGroupNotFound
	}
	delete(r.groups, id)
	return nil
}

func dropRequest(reqs []group.PendingRequest, userID primitive.ObjectID) []group.PendingRequest {
	return slices.DeleteFunc(reqs, func(p group.PendingRequest) bool { return p.UserID == userID })
}

func (r *Repo) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || slices.Contains(g.Members, userID) {
		return false, nil
	}
	g.Members = append(g.Members, userID)
	g.MemberCount++
	g.PendingRequests = dropRequest(g.PendingRequests, userID)
	return true, nil
}

func (r *Repo) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || !slices.Contains(g.Members, userID) {
		return false, nil
	}
	g.Members = slices.DeleteFunc(g.Members, func(id primitive.ObjectID) bool { return id == userID })
	g.MemberCount--
	return true, nil
}

func (r *Repo) AddPendingRequest(ctx context.Context, groupID primitive.ObjectID, req group.PendingRequest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || slices.Contains(g.Members, req.UserID) || g.HasPendingRequest(req.UserID) {
		return false, nil
	}
	g.PendingRequests = append(g.PendingRequests, req)
	return true, nil
}

func (r *Repo) RemovePendingRequest(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || !g.HasPendingRequest(userID) {
		return false, nil
	}
	g.PendingRequests = dropRequest(g.PendingRequests, userID)
	return true, nil
}

func (r *Repo) RepairMembers(ctx context.Context, groupID primitive.ObjectID, seen, members []primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[groupID]
	if !ok || !slices.Equal(g.Members, seen) {
		return false, nil
	}
	g.Members = slices.Clone(members)
	if g.Members == nil {
		g.Members = []primitive.ObjectID{}
	}
	g.MemberCount = len(members)
	return true, nil
}

func (r *Repo) EnsureIndexes(ctx context.Context) error { return nil }

var _ group.GroupRepository = (*Repo)(nil)
