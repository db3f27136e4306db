// Package usertest provides in-memory user repositories for tests.
package usertest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go-social/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]user.User
}

func NewUserRepo(users ...user.User) *UserRepo {
	r := &UserRepo{users: map[primitive.ObjectID]user.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []user.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error { return nil }

type InfoRepo struct {
	mu    sync.Mutex
	infos map[primitive.ObjectID]*user.UserInfo
	// FailFollowing makes every following_groups mutation fail
	FailFollowing error
}

func NewInfoRepo(infos ...user.UserInfo) *InfoRepo {
	r := &InfoRepo{infos: map[primitive.ObjectID]*user.UserInfo{}}
	for i := range infos {
		info := infos[i]
		if info.FollowingGroups == nil {
			info.FollowingGroups = []primitive.ObjectID{}
		}
		r.infos[info.UserID] = &info
	}
	return r
}

// Following returns a copy of the user's following_groups.
func (r *InfoRepo) Following(userID primitive.ObjectID) []primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.infos[userID]; ok {
		return slices.Clone(info.FollowingGroups)
	}
	return nil
}

func (r *InfoRepo) Create(ctx context.Context, info *user.UserInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info.ID.IsZero() {
		info.ID = primitive.NewObjectID()
	}
	if info.FollowingGroups == nil {
		info.FollowingGroups = []primitive.ObjectID{}
	}
	cp := *info
	r.infos[info.UserID] = &cp
	return nil
}

func (r *InfoRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*user.UserInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infos[userID]
	if !ok {
		return nil, user.ErrUserInfoNotFound
	}
	cp := *info
	cp.FollowingGroups = slices.Clone(info.FollowingGroups)
	return &cp, nil
}

func (r *InfoRepo) FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]user.UserInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []user.UserInfo{}
	for _, id := range userIDs {
		if info, ok := r.infos[id]; ok {
			out = append(out, *info)
		}
	}
	return out, nil
}

func (r *InfoRepo) UpdateProfile(ctx context.Context, userID primitive.ObjectID, patch user.ProfilePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infos[userID]
	if !ok {
		return user.ErrUserInfoNotFound
	}
	if patch.FirstName != nil {
		info.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		info.LastName = *patch.LastName
	}
	return nil
}

func (r *InfoRepo) SetProfilePicture(ctx context.Context, userID primitive.ObjectID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.infos[userID]
	if !ok {
		return user.ErrUserInfoNotFound
	}
	info.ProfilePicture = url
	return nil
}

func (r *InfoRepo) AddFollowingGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFollowing != nil {
		return r.FailFollowing
	}
	if info, ok := r.infos[userID]; ok && !slices.Contains(info.FollowingGroups, groupID) {
		info.FollowingGroups = append(info.FollowingGroups, groupID)
	}
	return nil
}

func (r *InfoRepo) RemoveFollowingGroup(ctx context.Context, userID, groupID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFollowing != nil {
		return r.FailFollowing
	}
	if info, ok := r.infos[userID]; ok {
		info.FollowingGroups = slices.DeleteFunc(info.FollowingGroups, func(id primitive.ObjectID) bool { return id == groupID })
	}
	return nil
}

func (r *InfoRepo) RemoveGroupFromUsers(ctx context.Context, userIDs []primitive.ObjectID, groupID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFollowing != nil {
		return 0, r.FailFollowing
	}
	var n int64
	for _, id := range userIDs {
		info, ok := r.infos[id]
		if !ok || !slices.Contains(info.FollowingGroups, groupID) {
			continue
		}
		info.FollowingGroups = slices.DeleteFunc(info.FollowingGroups, func(g primitive.ObjectID) bool { return g == groupID })
		n++
	}
	return n, nil
}

func (r *InfoRepo) SyncGroupFollowers(ctx context.Context, groupID primitive.ObjectID, members []primitive.ObjectID) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var added, removed int64
	for userID, info := range r.infos {
		member := slices.Contains(members, userID)
		following := slices.Contains(info.FollowingGroups, groupID)
		switch {
		case member && !following:
			info.FollowingGroups = append(info.FollowingGroups, groupID)
			added++
		case !member && following:
			info.FollowingGroups = slices.DeleteFunc(info.FollowingGroups, func(g primitive.ObjectID) bool { return g == groupID })
			removed++
		}
	}
	return added, removed, nil
}

func (r *InfoRepo) DistinctFollowingGroups(ctx context.Context) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	out := []primitive.ObjectID{}
	for _, info := range r.infos {
		for _, g := range info.FollowingGroups {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (r *InfoRepo) PullGroups(ctx context.Context, groupIDs []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, info := range r.infos {
		before := len(info.FollowingGroups)
		info.FollowingGroups = slices.DeleteFunc(info.FollowingGroups, func(g primitive.ObjectID) bool { return slices.Contains(groupIDs, g) })
		if len(info.FollowingGroups) != before {
			n++
		}
	}
	return n, nil
}

func (r *InfoRepo) EnsureIndexes(ctx context.Context) error { return nil }

var (
	_ user.UserRepository     = (*UserRepo)(nil)
	_ user.UserInfoRepository = (*InfoRepo)(nil)
)
