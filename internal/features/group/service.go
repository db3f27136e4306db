package group

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	common_models "go-social/internal/common/models"
	"go-social/internal/features/audit"
	"go-social/internal/features/media"
	"go-social/internal/features/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const auditModule = "groups"

// PostCleaner removes every post of a group together with its media
type PostCleaner interface {
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int, error)
}

type GroupService interface {
	GetAllGroups(ctx context.Context) ([]GroupView, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*GroupView, error)
	CreateGroup(ctx context.Context, actor primitive.ObjectID, req CreateGroupRequest) (*GroupView, error)
	UpdateGroup(ctx context.Context, actor, id primitive.ObjectID, req UpdateGroupRequest) (*GroupView, error)
	DeleteGroup(ctx context.Context, actor, id primitive.ObjectID) error
	GetGroupsByCreator(ctx context.Context, userID primitive.ObjectID) ([]GroupView, error)
	GetGroupsByMember(ctx context.Context, userID primitive.ObjectID) ([]GroupView, error)
	UploadGroupPicture(ctx context.Context, actor primitive.ObjectID, groupID string, file io.Reader) (*media.Asset, error)
}

type GroupServiceImpl struct {
	Repo      GroupRepository
	InfoRepo  user.UserInfoRepository
	Profiles  ProfileLookup
	Posts     PostCleaner
	Storage   media.Storage
	Audit     audit.AuditService
	Log       *zap.Logger
	presenter presenter
}

func NewGroupService(
	repo GroupRepository,
	infoRepo user.UserInfoRepository,
	profiles ProfileLookup,
	posts PostCleaner,
	storage media.Storage,
	auditService audit.AuditService,
	log *zap.Logger,
) GroupService {
	return &GroupServiceImpl{
		Repo:      repo,
		InfoRepo:  infoRepo,
		Profiles:  profiles,
		Posts:     posts,
		Storage:   storage,
		Audit:     auditService,
		Log:       log,
		presenter: presenter{profiles: profiles},
	}
}

func (s *GroupServiceImpl) GetAllGroups(ctx context.Context) ([]GroupView, error) {
	groups, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.presenter.views(ctx, groups)
}

func (s *GroupServiceImpl) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.presenter.detail(ctx, group)
}

func (s *GroupServiceImpl) CreateGroup(ctx context.Context, actor primitive.ObjectID, req CreateGroupRequest) (*GroupView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	taken, err := s.Repo.NameTaken(ctx, name, primitive.NilObjectID)
	if err != nil {
		return nil, fmt.Errorf("check group name: %w", err)
	}
	if taken {
		return nil, ErrDuplicateName
	}

	group := &Group{
		Name:        name,
		Description: req.Description,
		Image:       req.Image,
		IsPrivate:   req.IsPrivate,
		Creator:     actor,
		Members:     []primitive.ObjectID{actor},
	}
	if err := s.Repo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.follow(ctx, actor, group.ID)
	s.audit(ctx, common_models.AuditActionCreate, group.ID, map[string]common_models.Change{
		"name":       {New: group.Name},
		"is_private": {New: group.IsPrivate},
	})

	return s.presenter.detail(ctx, group)
}

func (s *GroupServiceImpl) UpdateGroup(ctx context.Context, actor, id primitive.ObjectID, req UpdateGroupRequest) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.HasCreator() && !group.IsCreator(actor) {
		return nil, ErrUpdateForbidden
	}

	changes := map[string]common_models.Change{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if name != group.Name {
			taken, err := s.Repo.NameTaken(ctx, name, group.ID)
			if err != nil {
				return nil, fmt.Errorf("check group name: %w", err)
			}
			if taken {
				return nil, ErrDuplicateName
			}
			changes["name"] = common_models.Change{Old: group.Name, New: name}
			group.Name = name
		}
	}
	if req.Description != nil && *req.Description != group.Description {
		changes["description"] = common_models.Change{Old: group.Description, New: *req.Description}
		group.Description = *req.Description
	}
	if req.Image != nil && *req.Image != group.Image {
		changes["image"] = common_models.Change{Old: group.Image, New: *req.Image}
		group.Image = *req.Image
	}
	if req.IsPrivate != nil && *req.IsPrivate != group.IsPrivate {
		changes["is_private"] = common_models.Change{Old: group.IsPrivate, New: *req.IsPrivate}
		group.IsPrivate = *req.IsPrivate
	}

	if err := s.Repo.Update(ctx, group); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		s.audit(ctx, common_models.AuditActionUpdate, group.ID, changes)
	}

	return s.presenter.detail(ctx, group)
}

// DeleteGroup removes the group. Following lists, posts and media are
// cleaned up first; failures there are logged and do not stop the delete.
func (s *GroupServiceImpl) DeleteGroup(ctx context.Context, actor, id primitive.ObjectID) error {
	group, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if group.HasCreator() && !group.IsCreator(actor) {
		return ErrDeleteForbidden
	}

	log := s.Log.With(zap.String("group_id", id.Hex()))

	if n, err := s.InfoRepo.RemoveGroupFromUsers(ctx, group.Participants(), id); err != nil {
		log.Warn("Failed to update following lists", zap.Error(err))
	} else {
		log.Debug("Removed group from following lists", zap.Int64("users", n))
	}

	if n, err := s.Posts.DeleteByGroup(ctx, id); err != nil {
		log.Warn("Failed to delete group posts", zap.Error(err))
	} else if n > 0 {
		log.Info("Deleted group posts", zap.Int("posts", n))
	}

	s.destroyGroupImage(ctx, log, group)

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, common_models.AuditActionDelete, id, map[string]common_models.Change{
		"name": {Old: group.Name},
	})
	return nil
}

func (s *GroupServiceImpl) destroyGroupImage(ctx context.Context, log *zap.Logger, group *Group) {
	conventional := media.GroupPicturePublicID(group.ID.Hex())
	if publicID, ok := media.PublicIDFromURL(group.Image); ok && publicID != conventional {
		if err := s.Storage.Destroy(ctx, publicID, media.ResourceTypeFromURL(group.Image)); err != nil {
			log.Warn("Failed to destroy group image", zap.String("public_id", publicID), zap.Error(err))
		}
	}
	if err := s.Storage.Destroy(ctx, conventional, media.ResourceImage); err != nil {
		log.Warn("Failed to destroy group image", zap.String("public_id", conventional), zap.Error(err))
	}
}

func (s *GroupServiceImpl) GetGroupsByCreator(ctx context.Context, userID primitive.ObjectID) ([]GroupView, error) {
	groups, err := s.Repo.FindByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.presenter.views(ctx, groups)
}

func (s *GroupServiceImpl) GetGroupsByMember(ctx context.Context, userID primitive.ObjectID) ([]GroupView, error) {
	groups, err := s.Repo.FindByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.presenter.views(ctx, groups)
}

var pictureKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// UploadGroupPicture stores the image as group_pictures/group_<groupID>.
// groupID may name a group that does not exist yet; when it does exist
// only its creator may replace the picture and the group image is updated.
func (s *GroupServiceImpl) UploadGroupPicture(ctx context.Context, actor primitive.ObjectID, groupID string, file io.Reader) (*media.Asset, error) {
	if !pictureKey.MatchString(groupID) {
		return nil, ErrInvalidGroupID
	}

	var existing *Group
	if oid, err := primitive.ObjectIDFromHex(groupID); err == nil {
		group, err := s.Repo.FindByID(ctx, oid)
		switch {
		case err == nil:
			if group.HasCreator() && !group.IsCreator(actor) {
				return nil, ErrPictureForbidden
			}
			existing = group
		case !errors.Is(err, ErrGroupNotFound):
			return nil, err
		}
	}

	asset, err := s.Storage.Upload(ctx, file, media.GroupPicturePublicID(groupID))
	if err != nil {
		return nil, fmt.Errorf("upload group picture: %w", err)
	}

	if existing != nil {
		if err := s.Repo.SetImage(ctx, existing.ID, asset.URL); err != nil {
			return nil, err
		}
		s.audit(ctx, common_models.AuditActionUpdate, existing.ID, map[string]common_models.Change{
			"image": {Old: existing.Image, New: asset.URL},
		})
	}
	return asset, nil
}

func (s *GroupServiceImpl) follow(ctx context.Context, userID, groupID primitive.ObjectID) {
	if err := s.InfoRepo.AddFollowingGroup(ctx, userID, groupID); err != nil {
		s.Log.Warn("Failed to add group to following list",
			zap.String("member_id", userID.Hex()), zap.String("group_id", groupID.Hex()), zap.Error(err))
	}
}

func (s *GroupServiceImpl) audit(ctx context.Context, action common_models.AuditAction, groupID primitive.ObjectID, changes map[string]common_models.Change) {
	if err := s.Audit.LogChange(ctx, action, auditModule, groupID.Hex(), changes); err != nil {
		s.Log.Warn("Failed to write audit log", zap.String("group_id", groupID.Hex()), zap.Error(err))
	}
}
