package group_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	common_models "go-social/internal/common/models"
	"go-social/internal/features/group"
	"go-social/internal/features/group/grouptest"
	"go-social/internal/features/media/mediatest"
	"go-social/internal/features/notification"
	"go-social/internal/features/user"
	"go-social/internal/features/user/usertest"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MockAudit struct {
	mu      sync.Mutex
	Entries []common_models.AuditLog
}

func (m *MockAudit) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, common_models.AuditLog{Action: action, Module: module, RecordID: recordID, Changes: changes})
	return nil
}

func (m *MockAudit) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return m.Entries, nil
}

type sentNotification struct {
	UserID primitive.ObjectID
	Type   notification.NotificationType
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []sentNotification
	Err  error
}

func (m *MockNotifier) Notify(ctx context.Context, userID primitive.ObjectID, notifType notification.NotificationType, title, message, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, sentNotification{UserID: userID, Type: notifType})
	return nil
}

func (m *MockNotifier) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]notification.Notification, int64, error) {
	return nil, 0, nil
}

func (m *MockNotifier) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return 0, nil
}

func (m *MockNotifier) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error {
	return nil
}

func (m *MockNotifier) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return nil
}

type MockPosts struct {
	Deleted []primitive.ObjectID
	Err     error
}

func (m *MockPosts) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.Deleted = append(m.Deleted, groupID)
	return 1, nil
}

var errBoom = errors.New("boom")

type fixture struct {
	creator   primitive.ObjectID
	alice     primitive.ObjectID
	bob       primitive.ObjectID
	groups    *grouptest.Repo
	infos     *usertest.InfoRepo
	storage   *mediatest.Storage
	audit     *MockAudit
	notifier  *MockNotifier
	posts     *MockPosts
	groupSvc  group.GroupService
	memberSvc group.MembershipService
}

func newFixture(groups ...group.Group) *fixture {
	f := &fixture{
		creator:  primitive.NewObjectID(),
		alice:    primitive.NewObjectID(),
		bob:      primitive.NewObjectID(),
		storage:  &mediatest.Storage{},
		audit:    &MockAudit{},
		notifier: &MockNotifier{},
		posts:    &MockPosts{},
	}
	f.groups = grouptest.NewRepo(groups...)

	users := usertest.NewUserRepo(
		user.User{ID: f.creator, Name: "creator", Email: "creator@x.io"},
		user.User{ID: f.alice, Name: "alice", Email: "alice@x.io"},
		user.User{ID: f.bob, Name: "bob", Email: "bob@x.io"},
	)
	f.infos = usertest.NewInfoRepo(
		user.UserInfo{UserID: f.creator, FirstName: "Carol", LastName: "Creator"},
		user.UserInfo{UserID: f.alice, FirstName: "Alice"},
		user.UserInfo{UserID: f.bob},
	)
	profiles := user.NewUserService(users, f.infos, f.storage, zap.NewNop())

	f.groupSvc = group.NewGroupService(f.groups, f.infos, profiles, f.posts, f.storage, f.audit, zap.NewNop())
	f.memberSvc = group.NewMembershipService(f.groups, f.infos, profiles, f.notifier, f.audit, zap.NewNop())
	return f
}

// seed stores a group owned by the fixture creator
func (f *fixture) seed(private bool, members ...primitive.ObjectID) primitive.ObjectID {
	g := &group.Group{
		Name:      "group-" + primitive.NewObjectID().Hex(),
		IsPrivate: private,
		Creator:   f.creator,
		Members:   append([]primitive.ObjectID{f.creator}, members...),
	}
	if err := f.groups.Create(context.Background(), g); err != nil {
		panic(err)
	}
	return g.ID
}

func (f *fixture) requestFrom(groupID, userID primitive.ObjectID) {
	if _, err := f.memberSvc.RequestJoin(context.Background(), userID, groupID); err != nil {
		panic(err)
	}
}

func assertCount(t *testing.T, g *group.Group) {
	t.Helper()
	if g.MemberCount != len(g.Members) {
		t.Fatalf("member_count = %d, len(members) = %d", g.MemberCount, len(g.Members))
	}
}
