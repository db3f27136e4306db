package main

import (
	"context"
	"fmt"
	common_api "go-social/internal/common/api"
	"go-social/internal/config"
	"go-social/internal/database"
	"go-social/internal/features/audit"
	"go-social/internal/features/auth"
	"go-social/internal/features/group"
	"go-social/internal/features/maintenance"
	"go-social/internal/features/media"
	"go-social/internal/features/notification"
	"go-social/internal/features/post"
	"go-social/internal/features/system"
	"go-social/internal/features/user"
	"go-social/internal/logger"
	"go-social/internal/middleware"
	"go-social/pkg/utils"
	"time"

	_ "go-social/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             int(cfg.MaxImageSize()) * 10,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowOrigins))
	app.Use(middleware.RequestLogger(log))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, log *zap.Logger) {
	log.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		log.Debug("Setting up route", zap.String("route", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
	log.Info("All routes registered successfully")
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Server listening", zap.String("port", port))
				if err := app.Listen(port); err != nil {
					log.Fatal("Server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

type indexParams struct {
	fx.In

	Users         user.UserRepository
	UserInfo      user.UserInfoRepository
	Groups        group.GroupRepository
	Posts         post.PostRepository
	Audit         audit.AuditRepository
	Notifications notification.NotificationRepository
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, p indexParams, log *zap.Logger) {
	repos := map[string]database.IndexedRepository{
		"users":         p.Users,
		"user_info":     p.UserInfo,
		"groups":        p.Groups,
		"posts":         p.Posts,
		"audit_logs":    p.Audit,
		"notifications": p.Notifications,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				for name, repo := range repos {
					if err := repo.EnsureIndexes(ctx); err != nil {
						log.Error("Failed to ensure indexes", zap.String("collection", name), zap.Error(err))
					}
				}
			}()
			return nil
		},
	})
}

// @title           go-social API
// @version         1.0
// @description     Groups, membership, join requests and posts for a small social network.

// @contact.name    API Support

// @host            localhost:5000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,

			// Media storage
			media.NewStorage,

			// Initialize Repository
			user.NewUserRepository,
			user.NewUserInfoRepository,
			audit.NewAuditRepository,
			group.NewGroupRepository,
			post.NewPostRepository,
			notification.NewNotificationRepository,

			notification.NewHub,
			user.NewUserService,
			audit.NewAuditService,
			auth.NewAuthService,
			notification.NewNotificationService,
			post.NewPostService,
			group.NewGroupService,
			group.NewMembershipService,
			maintenance.NewReconcileService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(s user.UserService) group.ProfileLookup { return s },
			func(s user.UserService) audit.UserNamer { return s },
			func(s post.PostService) group.PostCleaner { return s },

			// Initialize Controller
			auth.NewAuthController,
			user.NewUserController,
			audit.NewAuditController,
			notification.NewNotificationController,
			group.NewGroupController,
			group.NewMembershipController,
			post.NewPostController,
			maintenance.NewMaintenanceController,
			system.NewDebugController,

			// Initialize API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(group.NewGroupApi),
			AsRoute(post.NewPostApi),
			AsRoute(maintenance.NewMaintenanceApi),
			AsRoute(system.NewDebugApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			maintenance.RegisterScheduler,
			InitializeIndexes,
		),
	)

	app.Run()
}
