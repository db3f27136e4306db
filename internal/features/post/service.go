package post

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-social/internal/features/group"
	"go-social/internal/features/media"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrEmptyPost       = errors.New("post must have content or media")
	ErrDeleteForbidden = errors.New("only the author or the group creator can delete this post")
	ErrPrivateGroup    = errors.New("only members can access posts of a private group")
)

type PostService interface {
	CreatePost(ctx context.Context, actor, groupID primitive.ObjectID, content string, files []io.Reader) (*PostView, error)
	ListGroupPosts(ctx context.Context, actor, groupID primitive.ObjectID) ([]PostView, error)
	DeletePost(ctx context.Context, actor, id primitive.ObjectID) error
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int, error)
}

type PostServiceImpl struct {
	Repo     PostRepository
	Groups   group.GroupRepository
	Profiles group.ProfileLookup
	Storage  media.Storage
	Log      *zap.Logger
}

func NewPostService(repo PostRepository, groups group.GroupRepository, profiles group.ProfileLookup, storage media.Storage, log *zap.Logger) PostService {
	return &PostServiceImpl{
		Repo:     repo,
		Groups:   groups,
		Profiles: profiles,
		Storage:  storage,
		Log:      log,
	}
}

func (s *PostServiceImpl) CreatePost(ctx context.Context, actor, groupID primitive.ObjectID, content string, files []io.Reader) (*PostView, error) {
	g, err := s.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.CanView(actor) {
		return nil, ErrPrivateGroup
	}

	content = strings.TrimSpace(content)
	if content == "" && len(files) == 0 {
		return nil, ErrEmptyPost
	}

	post := &Post{
		GroupID:   groupID,
		AuthorID:  actor,
		Content:   content,
		MediaURLs: make([]string, 0, len(files)),
	}
	for _, file := range files {
		asset, err := s.Storage.Upload(ctx, file, media.PostMediaFolder+"/"+uuid.NewString())
		if err != nil {
			media.DestroyURLs(ctx, s.Storage, s.Log, post.MediaURLs...)
			return nil, fmt.Errorf("upload post media: %w", err)
		}
		post.MediaURLs = append(post.MediaURLs, asset.URL)
	}

	if err := s.Repo.Create(ctx, post); err != nil {
		media.DestroyURLs(ctx, s.Storage, s.Log, post.MediaURLs...)
		return nil, err
	}

	views, err := s.withAuthors(ctx, []Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostServiceImpl) ListGroupPosts(ctx context.Context, actor, groupID primitive.ObjectID) ([]PostView, error) {
	g, err := s.Groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.CanView(actor) {
		return nil, ErrPrivateGroup
	}

	posts, err := s.Repo.FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, posts)
}

// DeletePost removes a post; its media is destroyed best-effort
func (s *PostServiceImpl) DeletePost(ctx context.Context, actor, id primitive.ObjectID) error {
	post, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if post.AuthorID != actor {
		g, err := s.Groups.FindByID(ctx, post.GroupID)
		if err != nil && !errors.Is(err, group.ErrGroupNotFound) {
			return err
		}
		if g == nil || !g.IsCreator(actor) {
			return ErrDeleteForbidden
		}
	}

	media.DestroyURLs(ctx, s.Storage, s.Log, post.MediaURLs...)
	return s.Repo.Delete(ctx, id)
}

// DeleteByGroup removes every post of the group along with its media
func (s *PostServiceImpl) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int, error) {
	posts, err := s.Repo.FindByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	for _, p := range posts {
		media.DestroyURLs(ctx, s.Storage, s.Log, p.MediaURLs...)
	}

	n, err := s.Repo.DeleteByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *PostServiceImpl) withAuthors(ctx context.Context, posts []Post) ([]PostView, error) {
	ids := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool, len(posts))
	for _, p := range posts {
		if !seen[p.AuthorID] {
			seen[p.AuthorID] = true
			ids = append(ids, p.AuthorID)
		}
	}
	profiles, err := s.Profiles.LookupProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, PostView{Post: p, Author: profiles[p.AuthorID]})
	}
	return views, nil
}
