package user_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go-social/internal/features/media/mediatest"
	"go-social/internal/features/user"
	"go-social/internal/features/user/usertest"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLookupProfilesDisplayNames(t *testing.T) {
	withNames := primitive.NewObjectID()
	withAccountName := primitive.NewObjectID()
	emailOnly := primitive.NewObjectID()
	missing := primitive.NewObjectID()

	users := usertest.NewUserRepo(
		user.User{ID: withNames, Name: "dana", Email: "dana@x.io"},
		user.User{ID: withAccountName, Name: "lee", Email: "lee@x.io"},
		user.User{ID: emailOnly, Email: "anon@x.io"},
	)
	infos := usertest.NewInfoRepo(
		user.UserInfo{UserID: withNames, FirstName: "Dana", LastName: "Levi", ProfilePicture: "p.png"},
		user.UserInfo{UserID: withAccountName},
	)
	svc := user.NewUserService(users, infos, &mediatest.Storage{}, zap.NewNop())

	profiles, err := svc.LookupProfiles(context.Background(), []primitive.ObjectID{withNames, withAccountName, emailOnly, missing})
	if err != nil {
		t.Fatalf("LookupProfiles() error = %v", err)
	}

	want := map[primitive.ObjectID]string{
		withNames:       "Dana Levi",
		withAccountName: "lee",
		emailOnly:       "anon@x.io",
		missing:         "Unknown User",
	}
	for id, name := range want {
		if got := profiles[id].DisplayName; got != name {
			t.Errorf("DisplayName(%s) = %q, want %q", id.Hex(), got, name)
		}
	}
	if profiles[withNames].ProfilePicture != "p.png" {
		t.Errorf("ProfilePicture = %q", profiles[withNames].ProfilePicture)
	}
}

func TestDisplayNameTrimsSingleName(t *testing.T) {
	if got := user.DisplayName("", "Cohen", "x", "y"); got != "Cohen" {
		t.Errorf("DisplayName = %q, want Cohen", got)
	}
}

func TestUpdateInfoPatchesOnlyProvidedFields(t *testing.T) {
	id := primitive.NewObjectID()
	infos := usertest.NewInfoRepo(user.UserInfo{UserID: id, FirstName: "A", LastName: "B"})
	svc := user.NewUserService(usertest.NewUserRepo(), infos, &mediatest.Storage{}, zap.NewNop())

	first := "Ada"
	info, err := svc.UpdateInfo(context.Background(), id, user.ProfilePatch{FirstName: &first})
	if err != nil {
		t.Fatalf("UpdateInfo() error = %v", err)
	}
	if info.FirstName != "Ada" || info.LastName != "B" {
		t.Errorf("info = %+v", info)
	}

	if _, err := svc.UpdateInfo(context.Background(), primitive.NewObjectID(), user.ProfilePatch{}); !errors.Is(err, user.ErrUserInfoNotFound) {
		t.Errorf("unknown user error = %v, want ErrUserInfoNotFound", err)
	}
}

func TestUploadProfilePictureStoresConventionalID(t *testing.T) {
	id := primitive.NewObjectID()
	infos := usertest.NewInfoRepo(user.UserInfo{UserID: id})
	storage := &mediatest.Storage{}
	svc := user.NewUserService(usertest.NewUserRepo(), infos, storage, zap.NewNop())

	info, err := svc.UploadProfilePicture(context.Background(), id, strings.NewReader("img"))
	if err != nil {
		t.Fatalf("UploadProfilePicture() error = %v", err)
	}
	wantID := "profile_pictures/user_" + id.Hex()
	if len(storage.Uploaded) != 1 || storage.Uploaded[0] != wantID {
		t.Errorf("uploaded = %v, want [%s]", storage.Uploaded, wantID)
	}
	if !strings.Contains(info.ProfilePicture, wantID) {
		t.Errorf("ProfilePicture = %q", info.ProfilePicture)
	}
}
