// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	announcementsfeature "github.com/WaffleZilla55/BesPick/internal/app/features/announcements"
	authgooglefeature "github.com/WaffleZilla55/BesPick/internal/app/features/authgoogle"
	healthfeature "github.com/WaffleZilla55/BesPick/internal/app/features/health"
	logoutfeature "github.com/WaffleZilla55/BesPick/internal/app/features/logout"
	membersfeature "github.com/WaffleZilla55/BesPick/internal/app/features/members"
	pollsfeature "github.com/WaffleZilla55/BesPick/internal/app/features/polls"
	uploadsfeature "github.com/WaffleZilla55/BesPick/internal/app/features/uploads"
	userinfofeature "github.com/WaffleZilla55/BesPick/internal/app/features/userinfo"
	votingfeature "github.com/WaffleZilla55/BesPick/internal/app/features/voting"
	oauthstatestore "github.com/WaffleZilla55/BesPick/internal/app/store/oauthstate"
	"github.com/WaffleZilla55/BesPick/internal/app/system/auth"
	"github.com/WaffleZilla55/BesPick/internal/app/system/tasks"
	"github.com/WaffleZilla55/BesPick/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Background workers started in BuildHandler and stopped in Shutdown.
var (
	taskRunner *tasks.Runner
	sweeper    *workers.LifecycleSweep
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. BesPick applies session middleware and
// mounts feature routers for the board API: activities, polls, voting
// events, uploads, and the admin surface.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	stateStore := oauthstatestore.New(deps.MongoDatabase)
	googleHandler := authgooglefeature.NewHandler(
		deps.MongoDatabase, sessionMgr, stateStore,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Current-user probe for the front end
	userinfoHandler := userinfofeature.NewHandler()
	userinfofeature.MountRoutes(r, userinfoHandler)

	// Board activities: announcements, polls, voting events
	announcementsHandler := announcementsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/activities", announcementsfeature.Routes(announcementsHandler, sessionMgr))

	pollsHandler := pollsfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/polls", pollsfeature.Routes(pollsHandler, sessionMgr))

	votingHandler := votingfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/voting", votingfeature.Routes(votingHandler, sessionMgr))

	// Admin user management and roster candidates
	membersHandler := membersfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/api/admin", membersfeature.Routes(membersHandler, sessionMgr))

	// Image uploads backed by GridFS
	uploadsHandler, err := uploadsfeature.NewHandler(deps.MongoDatabase, logger)
	if err != nil {
		logger.Error("uploads handler init failed", zap.Error(err))
		return nil, err
	}
	r.Mount("/uploads", uploadsfeature.Routes(uploadsHandler, sessionMgr))

	// Background workers: periodic lifecycle sweep and OAuth state cleanup.
	sweeper = workers.NewLifecycleSweep(announcementsHandler, logger, appCfg.SweepInterval)
	sweeper.Start()

	taskRunner = tasks.NewRunner(logger, tasks.OAuthStateCleanupJob(stateStore, logger))
	taskRunner.Start()

	return r, nil
}
