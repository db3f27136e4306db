package post_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"go-social/internal/features/group"
	"go-social/internal/features/group/grouptest"
	"go-social/internal/features/media/mediatest"
	"go-social/internal/features/post"
	"go-social/internal/features/user"
	"go-social/internal/features/user/usertest"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockPostRepo struct {
	posts     map[primitive.ObjectID]post.Post
	CreateErr error
}

func NewMockPostRepo() *MockPostRepo {
	return &MockPostRepo{posts: map[primitive.ObjectID]post.Post{}}
}

func (m *MockPostRepo) Create(ctx context.Context, p *post.Post) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = time.Now()
	m.posts[p.ID] = *p
	return nil
}

func (m *MockPostRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*post.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, post.ErrPostNotFound
	}
	return &p, nil
}

func (m *MockPostRepo) FindByGroup(ctx context.Context, groupID primitive.ObjectID) ([]post.Post, error) {
	out := []post.Post{}
	for _, p := range m.posts {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPostRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.posts[id]; !ok {
		return post.ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MockPostRepo) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	var n int64
	for id, p := range m.posts {
		if p.GroupID == groupID {
			delete(m.posts, id)
			n++
		}
	}
	return n, nil
}

func (m *MockPostRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fixture struct {
	creator, member, outsider primitive.ObjectID
	public, private           primitive.ObjectID
	repo                      *MockPostRepo
	storage                   *mediatest.Storage
	svc                       post.PostService
}

func newFixture() *fixture {
	f := &fixture{
		creator:  primitive.NewObjectID(),
		member:   primitive.NewObjectID(),
		outsider: primitive.NewObjectID(),
		public:   primitive.NewObjectID(),
		private:  primitive.NewObjectID(),
		repo:     NewMockPostRepo(),
		storage:  &mediatest.Storage{},
	}
	groups := grouptest.NewRepo(
		group.Group{ID: f.public, Name: "public", Creator: f.creator, Members: []primitive.ObjectID{f.creator, f.member}, MemberCount: 2},
		group.Group{ID: f.private, Name: "private", IsPrivate: true, Creator: f.creator, Members: []primitive.ObjectID{f.creator, f.member}, MemberCount: 2},
	)
	users := usertest.NewUserRepo(user.User{ID: f.member, Name: "member", Email: "m@x.io"})
	profiles := user.NewUserService(users, usertest.NewInfoRepo(), f.storage, zap.NewNop())
	f.svc = post.NewPostService(f.repo, groups, profiles, f.storage, zap.NewNop())
	return f
}

func TestCreatePostUploadsMedia(t *testing.T) {
	f := newFixture()

	view, err := f.svc.CreatePost(context.Background(), f.member, f.private, " hello ",
		[]io.Reader{strings.NewReader("a"), strings.NewReader("b")})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	if view.Content != "hello" || view.Author.DisplayName != "member" {
		t.Errorf("post = %+v", view)
	}
	if len(view.MediaURLs) != 2 || len(f.storage.Uploaded) != 2 {
		t.Fatalf("media = %v, uploaded = %v", view.MediaURLs, f.storage.Uploaded)
	}
	for _, id := range f.storage.Uploaded {
		if !strings.HasPrefix(id, "post_media/") {
			t.Errorf("public id %q not under post_media/", id)
		}
	}
	if f.storage.Uploaded[0] == f.storage.Uploaded[1] {
		t.Error("media public ids are not unique")
	}
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CreatePost(ctx, f.member, f.public, "  ", nil); !errors.Is(err, post.ErrEmptyPost) {
		t.Errorf("empty post error = %v, want ErrEmptyPost", err)
	}
	if _, err := f.svc.CreatePost(ctx, f.outsider, f.private, "hi", nil); !errors.Is(err, post.ErrPrivateGroup) {
		t.Errorf("outsider in private group error = %v, want ErrPrivateGroup", err)
	}
	if _, err := f.svc.CreatePost(ctx, f.outsider, f.public, "hi", nil); err != nil {
		t.Errorf("outsider in public group error = %v", err)
	}
	if _, err := f.svc.CreatePost(ctx, f.member, primitive.NewObjectID(), "hi", nil); !errors.Is(err, group.ErrGroupNotFound) {
		t.Errorf("missing group error = %v, want ErrGroupNotFound", err)
	}
}

func TestCreatePostRollsBackMediaWhenSaveFails(t *testing.T) {
	f := newFixture()
	f.repo.CreateErr = errors.New("db down")

	_, err := f.svc.CreatePost(context.Background(), f.member, f.public, "", []io.Reader{strings.NewReader("a")})
	if err == nil {
		t.Fatal("CreatePost() error = nil, want failure")
	}
	if !slices.Equal(f.storage.Destroyed, f.storage.Uploaded) {
		t.Errorf("destroyed = %v, uploaded = %v", f.storage.Destroyed, f.storage.Uploaded)
	}
}

func TestListGroupPostsVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.CreatePost(ctx, f.member, f.private, "secret", nil); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	if _, err := f.svc.ListGroupPosts(ctx, f.outsider, f.private); !errors.Is(err, post.ErrPrivateGroup) {
		t.Errorf("outsider list error = %v, want ErrPrivateGroup", err)
	}
	posts, err := f.svc.ListGroupPosts(ctx, f.creator, f.private)
	if err != nil {
		t.Fatalf("ListGroupPosts() error = %v", err)
	}
	if len(posts) != 1 || posts[0].Content != "secret" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestDeletePostPermissions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.CreatePost(ctx, f.member, f.public, "one", []io.Reader{strings.NewReader("a")})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	second, err := f.svc.CreatePost(ctx, f.member, f.public, "two", nil)
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	if err := f.svc.DeletePost(ctx, f.outsider, first.ID); !errors.Is(err, post.ErrDeleteForbidden) {
		t.Errorf("outsider delete error = %v, want ErrDeleteForbidden", err)
	}
	if err := f.svc.DeletePost(ctx, f.member, first.ID); err != nil {
		t.Errorf("author delete error = %v", err)
	}
	if len(f.storage.Destroyed) != 1 {
		t.Errorf("destroyed = %v, want the post media", f.storage.Destroyed)
	}
	if err := f.svc.DeletePost(ctx, f.creator, second.ID); err != nil {
		t.Errorf("group creator delete error = %v", err)
	}
	if err := f.svc.DeletePost(ctx, f.creator, second.ID); !errors.Is(err, post.ErrPostNotFound) {
		t.Errorf("second delete error = %v, want ErrPostNotFound", err)
	}
}

func TestDeleteByGroup(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := f.svc.CreatePost(ctx, f.member, f.public, "p", []io.Reader{strings.NewReader("a")}); err != nil {
			t.Fatalf("CreatePost() error = %v", err)
		}
	}
	if _, err := f.svc.CreatePost(ctx, f.member, f.private, "keep", nil); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	n, err := f.svc.DeleteByGroup(ctx, f.public)
	if err != nil {
		t.Fatalf("DeleteByGroup() error = %v", err)
	}
	if n != 3 || len(f.storage.Destroyed) != 3 {
		t.Errorf("deleted = %d, destroyed = %v", n, f.storage.Destroyed)
	}
	if remaining, _ := f.repo.FindByGroup(ctx, f.private); len(remaining) != 1 {
		t.Errorf("posts of other groups were removed")
	}
}

func TestDeleteByGroupDestroysVideoAsVideo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	clip := &post.Post{
		GroupID:   f.public,
		AuthorID:  f.member,
		MediaURLs: []string{"https://res.cloudinary.com/test/video/upload/v1/post_media/clip.mp4"},
	}
	if err := f.repo.Create(ctx, clip); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := f.svc.DeleteByGroup(ctx, f.public); err != nil {
		t.Fatalf("DeleteByGroup() error = %v", err)
	}
	if !slices.Equal(f.storage.Destroyed, []string{"post_media/clip"}) {
		t.Errorf("destroyed = %v", f.storage.Destroyed)
	}
	if !slices.Equal(f.storage.DestroyedTypes, []string{"video"}) {
		t.Errorf("resource types = %v, want video", f.storage.DestroyedTypes)
	}
}
