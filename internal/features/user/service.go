package user

import (
	"context"
	"fmt"
	"io"

	"go-social/internal/features/media"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserService interface {
	GetInfo(ctx context.Context, userID primitive.ObjectID) (*UserInfo, error)
	UpdateInfo(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*UserInfo, error)
	UploadProfilePicture(ctx context.Context, userID primitive.ObjectID, file io.Reader) (*UserInfo, error)
	LookupProfiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Profile, error)
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type UserServiceImpl struct {
	UserRepo UserRepository
	InfoRepo UserInfoRepository
	Storage  media.Storage
	Log      *zap.Logger
}

func NewUserService(userRepo UserRepository, infoRepo UserInfoRepository, storage media.Storage, log *zap.Logger) UserService {
	return &UserServiceImpl{
		UserRepo: userRepo,
		InfoRepo: infoRepo,
		Storage:  storage,
		Log:      log,
	}
}

func (s *UserServiceImpl) GetInfo(ctx context.Context, userID primitive.ObjectID) (*UserInfo, error) {
	return s.InfoRepo.FindByUserID(ctx, userID)
}

func (s *UserServiceImpl) UpdateInfo(ctx context.Context, userID primitive.ObjectID, patch ProfilePatch) (*UserInfo, error) {
	if err := s.InfoRepo.UpdateProfile(ctx, userID, patch); err != nil {
		return nil, err
	}
	return s.InfoRepo.FindByUserID(ctx, userID)
}

func (s *UserServiceImpl) UploadProfilePicture(ctx context.Context, userID primitive.ObjectID, file io.Reader) (*UserInfo, error) {
	if _, err := s.InfoRepo.FindByUserID(ctx, userID); err != nil {
		return nil, err
	}

	asset, err := s.Storage.Upload(ctx, file, media.ProfilePicturePublicID(userID.Hex()))
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}

	if err := s.InfoRepo.SetProfilePicture(ctx, userID, asset.URL); err != nil {
		return nil, err
	}
	return s.InfoRepo.FindByUserID(ctx, userID)
}

// LookupProfiles joins users and user_infos for the given ids. Ids with no
// user document still get an entry with an "Unknown User" display name.
func (s *UserServiceImpl) LookupProfiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Profile, error) {
	profiles := make(map[primitive.ObjectID]Profile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	users, err := s.UserRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	infos, err := s.InfoRepo.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	userMap := make(map[primitive.ObjectID]*User, len(users))
	for i := range users {
		userMap[users[i].ID] = &users[i]
	}
	infoMap := make(map[primitive.ObjectID]*UserInfo, len(infos))
	for i := range infos {
		infoMap[infos[i].UserID] = &infos[i]
	}

	for _, id := range ids {
		profiles[id] = buildProfile(id, userMap[id], infoMap[id])
	}
	return profiles, nil
}

// NamesByIDs resolves hex ids to display names; unparsable ids are skipped
func (s *UserServiceImpl) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	profiles, err := s.LookupProfiles(ctx, oids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(profiles))
	for id, p := range profiles {
		names[id.Hex()] = p.DisplayName
	}
	return names, nil
}
