package user

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const unknownUser = "Unknown User"

// User is an account
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserInfo holds profile fields and the denormalized list of groups the user is in
type UserInfo struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID   `bson:"user_id" json:"user_id"`
	FirstName       string               `bson:"first_name" json:"first_name"`
	LastName        string               `bson:"last_name" json:"last_name"`
	ProfilePicture  string               `bson:"profile_picture" json:"profile_picture"`
	FollowingGroups []primitive.ObjectID `bson:"following_groups" json:"following_groups"`
	CreatedAt       time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at" json:"updated_at"`
}

// ProfilePatch carries the profile fields to change; nil fields are kept
type ProfilePatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Profile is the public view of a user joined with their UserInfo
type Profile struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name,omitempty"`
	Email          string             `json:"email,omitempty"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	ProfilePicture string             `json:"profile_picture"`
	DisplayName    string             `json:"display_name"`
}

// DisplayName prefers "first last", then the account name, then the email.
func DisplayName(firstName, lastName, name, email string) string {
	if firstName != "" || lastName != "" {
		return strings.TrimSpace(firstName + " " + lastName)
	}
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return unknownUser
}

func buildProfile(id primitive.ObjectID, u *User, info *UserInfo) Profile {
	p := Profile{ID: id}
	if u != nil {
		p.Name = u.Name
		p.Email = u.Email
	}
	if info != nil {
		p.FirstName = info.FirstName
		p.LastName = info.LastName
		p.ProfilePicture = info.ProfilePicture
	}
	p.DisplayName = DisplayName(p.FirstName, p.LastName, p.Name, p.Email)
	return p
}
