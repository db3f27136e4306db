package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	common_models "go-social/internal/common/models"
	"go-social/internal/config"
	"go-social/internal/features/audit"
	"go-social/internal/features/group"
	"go-social/internal/features/user"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrReconcileRunning = errors.New("reconciliation is already running")

// ReconcileResult counts what a reconciliation pass changed
type ReconcileResult struct {
	GroupsScanned    int   `json:"groups_scanned"`
	GroupsRepaired   int   `json:"groups_repaired"`
	FollowingAdded   int64 `json:"following_added"`
	FollowingRemoved int64 `json:"following_removed"`
	DanglingRemoved  int64 `json:"dangling_removed"`
}

func (r ReconcileResult) Changed() bool {
	return r.GroupsRepaired > 0 || r.FollowingAdded > 0 || r.FollowingRemoved > 0 || r.DanglingRemoved > 0
}

// ReconcileService repairs drift between groups and the following_groups
// lists, which are written without a shared transaction.
type ReconcileService interface {
	Reconcile(ctx context.Context) (*ReconcileResult, error)
	Start() error
	Stop()
}

type ReconcileServiceImpl struct {
	Groups   group.GroupRepository
	InfoRepo user.UserInfoRepository
	Audit    audit.AuditService
	Log      *zap.Logger
	Schedule string

	running   sync.Mutex
	scheduler *cron.Cron
}

func NewReconcileService(groups group.GroupRepository, infoRepo user.UserInfoRepository, auditService audit.AuditService, cfg *config.Config, log *zap.Logger) ReconcileService {
	return &ReconcileServiceImpl{
		Groups:   groups,
		InfoRepo: infoRepo,
		Audit:    auditService,
		Log:      log.Named("reconcile"),
		Schedule: cfg.ReconcileSchedule,
	}
}

// RegisterScheduler runs the reconciliation job for the lifetime of the app
func RegisterScheduler(lc fx.Lifecycle, svc ReconcileService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start()
		},
		OnStop: func(ctx context.Context) error {
			svc.Stop()
			return nil
		},
	})
}

func (s *ReconcileServiceImpl) Start() error {
	if s.Schedule == "" {
		s.Log.Info("Reconciliation schedule disabled")
		return nil
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(s.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.Reconcile(ctx); err != nil && !errors.Is(err, ErrReconcileRunning) {
			s.Log.Error("Scheduled reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid RECONCILE_SCHEDULE %q: %w", s.Schedule, err)
	}

	s.scheduler.Start()
	s.Log.Info("Reconciliation scheduled", zap.String("schedule", s.Schedule))
	return nil
}

func (s *ReconcileServiceImpl) Stop() {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
}

func (s *ReconcileServiceImpl) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	if !s.running.TryLock() {
		return nil, ErrReconcileRunning
	}
	defer s.running.Unlock()

	start := time.Now()
	groups, err := s.Groups.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	result := &ReconcileResult{GroupsScanned: len(groups)}
	existing := make(map[primitive.ObjectID]bool, len(groups))

	for _, g := range groups {
		existing[g.ID] = true
		log := s.Log.With(zap.String("group_id", g.ID.Hex()))

		members := dedupe(g.Members)
		if len(members) != len(g.Members) || g.MemberCount != len(members) {
			repaired, err := s.Groups.RepairMembers(ctx, g.ID, g.Members, members)
			switch {
			case err != nil:
				log.Warn("Failed to repair members", zap.Error(err))
				continue
			case !repaired:
				// changed since it was read; the next pass will look again
				log.Debug("Group changed during reconciliation")
				continue
			}
			log.Info("Repaired member count",
				zap.Int("member_count", g.MemberCount), zap.Int("members", len(members)))
			result.GroupsRepaired++
		}

		// members may have moved since FindAll; sync against the current document
		current, err := s.Groups.FindByID(ctx, g.ID)
		switch {
		case errors.Is(err, group.ErrGroupNotFound):
			continue
		case err != nil:
			log.Warn("Failed to reload group", zap.Error(err))
			continue
		}

		added, removed, err := s.InfoRepo.SyncGroupFollowers(ctx, g.ID, dedupe(current.Members))
		if err != nil {
			log.Warn("Failed to sync following lists", zap.Error(err))
			continue
		}
		result.FollowingAdded += added
		result.FollowingRemoved += removed
	}

	followed, err := s.InfoRepo.DistinctFollowingGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load followed groups: %w", err)
	}
	var candidates []primitive.ObjectID
	for _, id := range followed {
		if !existing[id] {
			candidates = append(candidates, id)
		}
	}
	dangling, err := s.missingGroups(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("recheck followed groups: %w", err)
	}
	if len(dangling) > 0 {
		n, err := s.InfoRepo.PullGroups(ctx, dangling)
		if err != nil {
			return nil, fmt.Errorf("pull deleted groups: %w", err)
		}
		result.DanglingRemoved = n
	}

	s.Log.Info("Reconciliation finished",
		zap.Int("groups_scanned", result.GroupsScanned),
		zap.Int("groups_repaired", result.GroupsRepaired),
		zap.Int64("following_added", result.FollowingAdded),
		zap.Int64("following_removed", result.FollowingRemoved),
		zap.Int64("dangling_removed", result.DanglingRemoved),
		zap.Duration("took", time.Since(start)),
	)

	if result.Changed() {
		changes := map[string]common_models.Change{
			"groups_repaired":   {New: result.GroupsRepaired},
			"following_added":   {New: result.FollowingAdded},
			"following_removed": {New: result.FollowingRemoved},
			"dangling_removed":  {New: result.DanglingRemoved},
		}
		if err := s.Audit.LogChange(ctx, common_models.AuditActionReconcile, "groups", "*", changes); err != nil {
			s.Log.Warn("Failed to write audit log", zap.Error(err))
		}
	}
	return result, nil
}

// missingGroups returns the ids among candidates that have no group document.
// Groups created after the pass loaded its snapshot are not missing.
func (s *ReconcileServiceImpl) missingGroups(ctx context.Context, candidates []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	found, err := s.Groups.FindByIDs(ctx, candidates)
	if err != nil {
		return nil, err
	}
	present := make(map[primitive.ObjectID]bool, len(found))
	for _, g := range found {
		present[g.ID] = true
	}
	var missing []primitive.ObjectID
	for _, id := range candidates {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
