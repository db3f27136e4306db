package group_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"go-social/internal/features/group"
	"go-social/internal/features/notification"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJoinAndLeave(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seed(false)

	view, err := f.memberSvc.JoinGroup(ctx, f.alice, id)
	if err != nil {
		t.Fatalf("JoinGroup() error = %v", err)
	}
	if view.MemberCount != 2 || !view.IsMember(f.alice) {
		t.Errorf("after join: members = %v, count = %d", view.Members, view.MemberCount)
	}
	if !slices.Contains(f.infos.Following(f.alice), id) {
		t.Error("group missing from following_groups after join")
	}

	if _, err := f.memberSvc.JoinGroup(ctx, f.alice, id); !errors.Is(err, group.ErrAlreadyMember) {
		t.Errorf("second join error = %v, want ErrAlreadyMember", err)
	}
	assertCount(t, f.groups.Get(id))

	view, err = f.memberSvc.LeaveGroup(ctx, f.alice, id)
	if err != nil {
		t.Fatalf("LeaveGroup() error = %v", err)
	}
	if view.MemberCount != 1 || view.IsMember(f.alice) {
		t.Errorf("after leave: members = %v, count = %d", view.Members, view.MemberCount)
	}
	if slices.Contains(f.infos.Following(f.alice), id) {
		t.Error("group still in following_groups after leave")
	}

	if _, err := f.memberSvc.LeaveGroup(ctx, f.alice, id); !errors.Is(err, group.ErrNotMember) {
		t.Errorf("leave as non-member error = %v, want ErrNotMember", err)
	}
	if _, err := f.memberSvc.LeaveGroup(ctx, f.creator, id); !errors.Is(err, group.ErrCreatorCannotLeave) {
		t.Errorf("creator leave error = %v, want ErrCreatorCannotLeave", err)
	}
}

func TestJoinPrivateGroupRequiresRequest(t *testing.T) {
	f := newFixture()
	id := f.seed(true)

	if _, err := f.memberSvc.JoinGroup(context.Background(), f.alice, id); !errors.Is(err, group.ErrPrivateGroup) {
		t.Fatalf("JoinGroup() error = %v, want ErrPrivateGroup", err)
	}
}

func TestJoinMissingGroup(t *testing.T) {
	f := newFixture()
	if _, err := f.memberSvc.JoinGroup(context.Background(), f.alice, primitive.NewObjectID()); !errors.Is(err, group.ErrGroupNotFound) {
		t.Fatalf("JoinGroup() error = %v, want ErrGroupNotFound", err)
	}
}

func TestConcurrentJoinsKeepCountConsistent(t *testing.T) {
	f := newFixture()
	id := f.seed(false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.memberSvc.JoinGroup(context.Background(), f.alice, id)
		}()
	}
	wg.Wait()

	g := f.groups.Get(id)
	assertCount(t, g)
	if len(g.Members) != 2 {
		t.Errorf("members = %v, want creator and alice once", g.Members)
	}
}

func TestRequestApproveFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seed(true)

	view, err := f.memberSvc.RequestJoin(ctx, f.alice, id)
	if err != nil {
		t.Fatalf("RequestJoin() error = %v", err)
	}
	if len(view.PendingRequestDetails) != 1 || view.PendingRequestDetails[0].User.DisplayName != "Alice" {
		t.Errorf("pending = %+v", view.PendingRequestDetails)
	}
	if _, err := f.memberSvc.RequestJoin(ctx, f.alice, id); !errors.Is(err, group.ErrAlreadyRequested) {
		t.Errorf("duplicate request error = %v, want ErrAlreadyRequested", err)
	}

	if _, err := f.memberSvc.ApproveRequest(ctx, f.alice, id, f.alice); !errors.Is(err, group.ErrReviewForbidden) {
		t.Errorf("approve by non-creator error = %v, want ErrReviewForbidden", err)
	}
	if _, err := f.memberSvc.ApproveRequest(ctx, f.creator, id, f.bob); !errors.Is(err, group.ErrNoPendingRequest) {
		t.Errorf("approve without request error = %v, want ErrNoPendingRequest", err)
	}

	view, err = f.memberSvc.ApproveRequest(ctx, f.creator, id, f.alice)
	if err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}
	if !view.IsMember(f.alice) || view.HasPendingRequest(f.alice) {
		t.Errorf("after approve: members = %v, pending = %v", view.Members, view.PendingRequests)
	}
	assertCount(t, f.groups.Get(id))
	if !slices.Contains(f.infos.Following(f.alice), id) {
		t.Error("approved member does not follow the group")
	}

	want := []sentNotification{
		{UserID: f.creator, Type: notification.NotificationTypeJoinRequest},
		{UserID: f.alice, Type: notification.NotificationTypeRequestApproved},
	}
	if !slices.Equal(f.notifier.Sent, want) {
		t.Errorf("notifications = %+v, want %+v", f.notifier.Sent, want)
	}

	if _, err := f.memberSvc.RequestJoin(ctx, f.alice, id); !errors.Is(err, group.ErrAlreadyMember) {
		t.Errorf("request as member error = %v, want ErrAlreadyMember", err)
	}
}

func TestRejectAndCancelRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seed(true)
	f.requestFrom(id, f.alice)
	f.requestFrom(id, f.bob)

	view, err := f.memberSvc.RejectRequest(ctx, f.creator, id, f.alice)
	if err != nil {
		t.Fatalf("RejectRequest() error = %v", err)
	}
	if view.HasPendingRequest(f.alice) || view.IsMember(f.alice) {
		t.Errorf("after reject: members = %v, pending = %v", view.Members, view.PendingRequests)
	}
	if _, err := f.memberSvc.RejectRequest(ctx, f.creator, id, f.alice); !errors.Is(err, group.ErrNoPendingRequest) {
		t.Errorf("second reject error = %v, want ErrNoPendingRequest", err)
	}

	if err := f.memberSvc.CancelRequest(ctx, f.bob, id); err != nil {
		t.Fatalf("CancelRequest() error = %v", err)
	}
	if err := f.memberSvc.CancelRequest(ctx, f.bob, id); err != nil {
		t.Errorf("CancelRequest() without a request error = %v, want nil", err)
	}
	if g := f.groups.Get(id); len(g.PendingRequests) != 0 {
		t.Errorf("pending requests = %v, want none", g.PendingRequests)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seed(false, f.alice)

	if _, err := f.memberSvc.RemoveMember(ctx, f.alice, id, f.creator); !errors.Is(err, group.ErrRemoveForbidden) {
		t.Errorf("remove by non-creator error = %v, want ErrRemoveForbidden", err)
	}
	if _, err := f.memberSvc.RemoveMember(ctx, f.creator, id, f.creator); !errors.Is(err, group.ErrCannotRemoveCreator) {
		t.Errorf("remove creator error = %v, want ErrCannotRemoveCreator", err)
	}
	if _, err := f.memberSvc.RemoveMember(ctx, f.creator, id, f.bob); !errors.Is(err, group.ErrUserNotMember) {
		t.Errorf("remove non-member error = %v, want ErrUserNotMember", err)
	}

	view, err := f.memberSvc.RemoveMember(ctx, f.creator, id, f.alice)
	if err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if view.IsMember(f.alice) || view.MemberCount != 1 {
		t.Errorf("after remove: members = %v, count = %d", view.Members, view.MemberCount)
	}
	if len(f.notifier.Sent) != 1 || f.notifier.Sent[0].Type != notification.NotificationTypeMemberRemoved {
		t.Errorf("notifications = %+v", f.notifier.Sent)
	}
}

func TestMembershipIgnoresNotificationFailures(t *testing.T) {
	f := newFixture()
	f.notifier.Err = errBoom
	id := f.seed(true)

	if _, err := f.memberSvc.RequestJoin(context.Background(), f.alice, id); err != nil {
		t.Fatalf("RequestJoin() error = %v, want nil", err)
	}
}

func TestGetMembersVisibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	private := f.seed(true, f.alice)

	if _, err := f.memberSvc.GetMembers(ctx, f.bob, private); !errors.Is(err, group.ErrPrivateMembers) {
		t.Errorf("outsider GetMembers error = %v, want ErrPrivateMembers", err)
	}

	list, err := f.memberSvc.GetMembers(ctx, f.alice, private)
	if err != nil {
		t.Fatalf("GetMembers() error = %v", err)
	}
	if list.TotalMembers != 2 || !list.IsPrivate || list.CreatorID == nil || *list.CreatorID != f.creator {
		t.Errorf("member list = %+v", list)
	}
	if !list.Members[0].IsCreator || list.Members[1].IsCreator {
		t.Errorf("is_creator flags = %v, %v", list.Members[0].IsCreator, list.Members[1].IsCreator)
	}
}

func TestGetMembersListsAbsentCreatorFirst(t *testing.T) {
	creator := primitive.NewObjectID()
	member := primitive.NewObjectID()
	g := group.Group{ID: primitive.NewObjectID(), Name: "legacy", Creator: creator, Members: []primitive.ObjectID{member}, MemberCount: 1}
	f := newFixture(g)

	list, err := f.memberSvc.GetMembers(context.Background(), member, g.ID)
	if err != nil {
		t.Fatalf("GetMembers() error = %v", err)
	}
	if list.TotalMembers != 2 || list.Members[0].ID != creator || !list.Members[0].IsCreator {
		t.Errorf("members = %+v", list.Members)
	}
	if list.Members[0].DisplayName != "Unknown User" {
		t.Errorf("unknown creator display name = %q", list.Members[0].DisplayName)
	}
}

func TestExportMembers(t *testing.T) {
	f := newFixture()
	id := f.seed(false, f.alice)

	data, filename, err := f.memberSvc.ExportMembers(context.Background(), f.bob, id)
	if err != nil {
		t.Fatalf("ExportMembers() error = %v", err)
	}
	if filename != "group_"+id.Hex()+"_members.xlsx" {
		t.Errorf("filename = %q", filename)
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows("Members")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header and two members", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][1] != "Carol Creator" || rows[2][1] != "Alice" {
		t.Errorf("rows = %v", rows)
	}
}
