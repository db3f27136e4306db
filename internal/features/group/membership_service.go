package group

import (
	"bytes"
	"context"
	"fmt"
	"time"

	common_models "go-social/internal/common/models"
	"go-social/internal/features/audit"
	"go-social/internal/features/notification"
	"go-social/internal/features/user"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type MembershipService interface {
	JoinGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*GroupView, error)
	LeaveGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*GroupView, error)
	RequestJoin(ctx context.Context, actor, groupID primitive.ObjectID) (*GroupView, error)
	CancelRequest(ctx context.Context, actor, groupID primitive.ObjectID) error
	ApproveRequest(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error)
	RejectRequest(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error)
	GetMembers(ctx context.Context, actor, groupID primitive.ObjectID) (*MemberList, error)
	RemoveMember(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error)
	ExportMembers(ctx context.Context, actor, groupID primitive.ObjectID) ([]byte, string, error)
}

type MembershipServiceImpl struct {
	Repo          GroupRepository
	InfoRepo      user.UserInfoRepository
	Notifications notification.NotificationService
	Audit         audit.AuditService
	Log           *zap.Logger
	presenter     presenter
}

func NewMembershipService(
	repo GroupRepository,
	infoRepo user.UserInfoRepository,
	profiles ProfileLookup,
	notifications notification.NotificationService,
	auditService audit.AuditService,
	log *zap.Logger,
) MembershipService {
	return &MembershipServiceImpl{
		Repo:          repo,
		InfoRepo:      infoRepo,
		Notifications: notifications,
		Audit:         auditService,
		Log:           log,
		presenter:     presenter{profiles: profiles},
	}
}

func (s *MembershipServiceImpl) JoinGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsMember(actor) {
		return nil, ErrAlreadyMember
	}
	if group.IsPrivate && !group.IsCreator(actor) {
		return nil, ErrPrivateGroup
	}

	added, err := s.Repo.AddMember(ctx, groupID, actor)
	if err != nil {
		return nil, fmt.Errorf("join group: %w", err)
	}
	if !added {
		return nil, ErrAlreadyMember
	}

	s.follow(ctx, actor, groupID)
	s.audit(ctx, groupID, "members", nil, actor.Hex())
	return s.reload(ctx, groupID)
}

func (s *MembershipServiceImpl) LeaveGroup(ctx context.Context, actor, groupID primitive.ObjectID) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(actor) {
		return nil, ErrNotMember
	}
	if group.IsCreator(actor) {
		return nil, ErrCreatorCannotLeave
	}

	removed, err := s.Repo.RemoveMember(ctx, groupID, actor)
	if err != nil {
		return nil, fmt.Errorf("leave group: %w", err)
	}
	if !removed {
		return nil, ErrNotMember
	}

	s.unfollow(ctx, actor, groupID)
	s.audit(ctx, groupID, "members", actor.Hex(), nil)
	return s.reload(ctx, groupID)
}

func (s *MembershipServiceImpl) RequestJoin(ctx context.Context, actor, groupID primitive.ObjectID) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsMember(actor) {
		return nil, ErrAlreadyMember
	}
	if group.HasPendingRequest(actor) {
		return nil, ErrAlreadyRequested
	}

	added, err := s.Repo.AddPendingRequest(ctx, groupID, PendingRequest{UserID: actor, RequestedAt: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("request join: %w", err)
	}
	if !added {
		// lost a race with a concurrent join or request
		return nil, ErrAlreadyRequested
	}

	if group.HasCreator() {
		s.notify(ctx, group.Creator, notification.NotificationTypeJoinRequest,
			"New join request",
			fmt.Sprintf("A user asked to join %s", group.Name),
			groupLink(groupID))
	}
	return s.reload(ctx, groupID)
}

// CancelRequest withdraws the actor's pending request; it succeeds when there is none
func (s *MembershipServiceImpl) CancelRequest(ctx context.Context, actor, groupID primitive.ObjectID) error {
	if _, err := s.Repo.FindByID(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.Repo.RemovePendingRequest(ctx, groupID, actor); err != nil {
		return fmt.Errorf("cancel request: %w", err)
	}
	return nil
}

func (s *MembershipServiceImpl) reviewable(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*Group, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsCreator(actor) {
		return nil, ErrReviewForbidden
	}
	if !group.HasPendingRequest(userID) {
		return nil, ErrNoPendingRequest
	}
	return group, nil
}

func (s *MembershipServiceImpl) ApproveRequest(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error) {
	group, err := s.reviewable(ctx, actor, groupID, userID)
	if err != nil {
		return nil, err
	}

	added, err := s.Repo.AddMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("approve request: %w", err)
	}
	if !added {
		// already a member; only the stale request is left to drop
		if _, err := s.Repo.RemovePendingRequest(ctx, groupID, userID); err != nil {
			return nil, fmt.Errorf("approve request: %w", err)
		}
	}

	s.follow(ctx, userID, groupID)
	s.audit(ctx, groupID, "members", nil, userID.Hex())
	s.notify(ctx, userID, notification.NotificationTypeRequestApproved,
		"Join request approved",
		fmt.Sprintf("Your request to join %s was approved", group.Name),
		groupLink(groupID))
	return s.reload(ctx, groupID)
}

func (s *MembershipServiceImpl) RejectRequest(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error) {
	group, err := s.reviewable(ctx, actor, groupID, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.Repo.RemovePendingRequest(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("reject request: %w", err)
	}
	if !removed {
		return nil, ErrNoPendingRequest
	}

	s.notify(ctx, userID, notification.NotificationTypeRequestRejected,
		"Join request declined",
		fmt.Sprintf("Your request to join %s was declined", group.Name),
		"")
	return s.reload(ctx, groupID)
}

func (s *MembershipServiceImpl) GetMembers(ctx context.Context, actor, groupID primitive.ObjectID) (*MemberList, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.CanView(actor) {
		return nil, ErrPrivateMembers
	}
	return s.presenter.members(ctx, group)
}

func (s *MembershipServiceImpl) RemoveMember(ctx context.Context, actor, groupID, userID primitive.ObjectID) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsCreator(actor) {
		return nil, ErrRemoveForbidden
	}
	if group.IsCreator(userID) {
		return nil, ErrCannotRemoveCreator
	}

	removed, err := s.Repo.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("remove member: %w", err)
	}
	if !removed {
		return nil, ErrUserNotMember
	}

	s.unfollow(ctx, userID, groupID)
	s.audit(ctx, groupID, "members", userID.Hex(), nil)
	s.notify(ctx, userID, notification.NotificationTypeMemberRemoved,
		"Removed from group",
		fmt.Sprintf("You were removed from %s", group.Name),
		"")
	return s.reload(ctx, groupID)
}

var exportColumns = []string{"ID", "Display Name", "Name", "Email", "First Name", "Last Name", "Creator"}

// ExportMembers renders the member list as an xlsx workbook
func (s *MembershipServiceImpl) ExportMembers(ctx context.Context, actor, groupID primitive.ObjectID) ([]byte, string, error) {
	list, err := s.GetMembers(ctx, actor, groupID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Members"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err := f.SetSheetRow(sheetName, "A1", &exportColumns); err != nil {
		return nil, "", err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for i, m := range list.Members {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		creator := ""
		if m.IsCreator {
			creator = "yes"
		}
		row := []interface{}{m.ID.Hex(), m.DisplayName, m.Name, m.Email, m.FirstName, m.LastName, creator}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, "", err
		}
	}

	for i := range exportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("group_%s_members.xlsx", groupID.Hex()), nil
}

func (s *MembershipServiceImpl) reload(ctx context.Context, groupID primitive.ObjectID) (*GroupView, error) {
	group, err := s.Repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.presenter.detail(ctx, group)
}

func (s *MembershipServiceImpl) follow(ctx context.Context, userID, groupID primitive.ObjectID) {
	if err := s.InfoRepo.AddFollowingGroup(ctx, userID, groupID); err != nil {
		s.Log.Warn("Failed to add group to following list",
			zap.String("member_id", userID.Hex()), zap.String("group_id", groupID.Hex()), zap.Error(err))
	}
}

func (s *MembershipServiceImpl) unfollow(ctx context.Context, userID, groupID primitive.ObjectID) {
	if err := s.InfoRepo.RemoveFollowingGroup(ctx, userID, groupID); err != nil {
		s.Log.Warn("Failed to remove group from following list",
			zap.String("member_id", userID.Hex()), zap.String("group_id", groupID.Hex()), zap.Error(err))
	}
}

func (s *MembershipServiceImpl) notify(ctx context.Context, userID primitive.ObjectID, kind notification.NotificationType, title, message, link string) {
	if err := s.Notifications.Notify(ctx, userID, kind, title, message, link); err != nil {
		s.Log.Warn("Failed to send notification",
			zap.String("member_id", userID.Hex()), zap.String("type", string(kind)), zap.Error(err))
	}
}

func (s *MembershipServiceImpl) audit(ctx context.Context, groupID primitive.ObjectID, field string, from, to interface{}) {
	changes := map[string]common_models.Change{field: {Old: from, New: to}}
	if err := s.Audit.LogChange(ctx, common_models.AuditActionMembership, auditModule, groupID.Hex(), changes); err != nil {
		s.Log.Warn("Failed to write audit log", zap.String("group_id", groupID.Hex()), zap.Error(err))
	}
}

func groupLink(groupID primitive.ObjectID) string {
	return "/groups/" + groupID.Hex()
}
