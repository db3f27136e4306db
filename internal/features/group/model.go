package group

import (
	"time"

	"go-social/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named community with membership and privacy settings.
// MemberCount is denormalized and must equal len(Members).
type Group struct {
	ID              primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name            string               `json:"name" bson:"name"`
	Description     string               `json:"description" bson:"description"`
	Image           string               `json:"image" bson:"image"`
	IsPrivate       bool                 `json:"is_private" bson:"is_private"`
	Creator         primitive.ObjectID   `json:"creator,omitempty" bson:"creator,omitempty"`
	Members         []primitive.ObjectID `json:"members" bson:"members"`
	MemberCount     int                  `json:"member_count" bson:"member_count"`
	PendingRequests []PendingRequest     `json:"pending_requests" bson:"pending_requests"`
	CreatedAt       time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at" bson:"updated_at"`
}

// PendingRequest is a user's unapproved request to join a private group
type PendingRequest struct {
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	RequestedAt time.Time          `json:"requested_at" bson:"requested_at"`
}

func (g *Group) HasCreator() bool {
	return !g.Creator.IsZero()
}

func (g *Group) IsCreator(userID primitive.ObjectID) bool {
	return g.HasCreator() && g.Creator == userID
}

func (g *Group) IsMember(userID primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (g *Group) HasPendingRequest(userID primitive.ObjectID) bool {
	for _, r := range g.PendingRequests {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// CanView reports whether userID may see members and posts of the group
func (g *Group) CanView(userID primitive.ObjectID) bool {
	return !g.IsPrivate || g.IsMember(userID) || g.IsCreator(userID)
}

// Participants returns the members plus the creator, without duplicates
func (g *Group) Participants() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(g.Members)+1)
	seen := make(map[primitive.ObjectID]bool, len(g.Members)+1)
	for _, id := range g.Members {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if g.HasCreator() && !seen[g.Creator] {
		ids = append(ids, g.Creator)
	}
	return ids
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsPrivate   bool   `json:"is_private"`
}

// UpdateGroupRequest changes only the fields that are present
type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsPrivate   *bool   `json:"is_private"`
}

// GroupView is a group with the referenced users resolved to profiles
type GroupView struct {
	Group
	CreatorProfile        *user.Profile        `json:"creator_profile,omitempty"`
	MemberProfiles        []user.Profile       `json:"member_profiles,omitempty"`
	PendingRequestDetails []PendingRequestView `json:"pending_request_details,omitempty"`
}

type PendingRequestView struct {
	UserID      primitive.ObjectID `json:"user_id"`
	RequestedAt time.Time          `json:"requested_at"`
	User        user.Profile       `json:"user"`
}

type MemberView struct {
	user.Profile
	IsCreator bool `json:"is_creator"`
}

type MemberList struct {
	GroupID      primitive.ObjectID  `json:"group_id"`
	GroupName    string              `json:"group_name"`
	TotalMembers int                 `json:"total_members"`
	Members      []MemberView        `json:"members"`
	CreatorID    *primitive.ObjectID `json:"creator_id,omitempty"`
	IsPrivate    bool                `json:"is_private"`
}
