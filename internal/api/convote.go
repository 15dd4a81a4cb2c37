package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/convote/go-convote/internal/config"
	"github.com/convote/go-convote/internal/database"
	"github.com/convote/go-convote/internal/stats"
	"github.com/convote/go-convote/internal/voting"
	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"
)

type ConVoteApp struct {
	log        *log.Logger
	db         database.ConVoteRepository
	engine     *voting.Engine
	mux        *http.Server
	stats      stats.StatsProvider
	signingKey []byte

	// overridable in tests
	generatePassword func() (string, error)
}

func NewConVoteApp(mux *http.ServeMux, logger *log.Logger, db database.ConVoteRepository, engine *voting.Engine, st stats.StatsProvider, cfg *config.Config) *ConVoteApp {
	s := &ConVoteApp{
		log:              logger,
		db:               db,
		engine:           engine,
		stats:            st,
		signingKey:       cfg.SigningKey,
		generatePassword: shortid.Generate,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))

	admin := []string{database.RoleAdmin}
	voter := []string{database.RoleAdmin, database.RoleVoter}
	watcher := []string{database.RoleAdmin, database.RoleWatcher}

	mux.Handle("GET /api/admin/users", s.authMiddleware(s.listUsers, admin...))
	mux.Handle("POST /api/admin/users", s.authMiddleware(s.createUser, admin...))
	mux.Handle("POST /api/admin/users/import", s.authMiddleware(s.importUsers, admin...))
	mux.Handle("GET /api/admin/users/{id}", s.authMiddleware(s.getUser, admin...))
	mux.Handle("PUT /api/admin/users/{id}", s.authMiddleware(s.updateUser, admin...))
	mux.Handle("DELETE /api/admin/users/{id}", s.authMiddleware(s.deleteUser, admin...))

	mux.Handle("GET /api/admin/pools", s.authMiddleware(s.listPools, admin...))
	mux.Handle("POST /api/admin/pools", s.authMiddleware(s.createPool, admin...))
	mux.Handle("GET /api/admin/pools/{id}", s.authMiddleware(s.getPool, admin...))
	mux.Handle("DELETE /api/admin/pools/{id}", s.authMiddleware(s.deletePool, admin...))
	mux.Handle("GET /api/admin/pools/{id}/members", s.authMiddleware(s.listPoolMembers, admin...))
	mux.Handle("PUT /api/admin/pools/{id}/members", s.authMiddleware(s.replacePoolMembers, admin...))

	mux.Handle("GET /api/admin/meetings", s.authMiddleware(s.listMeetings, admin...))
	mux.Handle("POST /api/admin/meetings", s.authMiddleware(s.createMeeting, admin...))
	mux.Handle("GET /api/admin/meetings/{id}", s.authMiddleware(s.getMeeting, admin...))
	mux.Handle("PUT /api/admin/meetings/{id}", s.authMiddleware(s.updateMeeting, admin...))
	mux.Handle("DELETE /api/admin/meetings/{id}", s.authMiddleware(s.deleteMeeting, admin...))
	mux.Handle("GET /api/admin/meetings/{id}/motions", s.authMiddleware(s.listMotions, admin...))
	mux.Handle("POST /api/admin/meetings/{id}/motions", s.authMiddleware(s.createMotion, admin...))
	mux.Handle("GET /api/admin/meetings/{id}/quorum", s.authMiddleware(s.getQuorumReport, admin...))
	mux.Handle("PUT /api/admin/meetings/{id}/quorum", s.authMiddleware(s.callQuorum, admin...))
	mux.Handle("GET /api/admin/meetings/{id}/quorum/voters", s.authMiddleware(s.getQuorumVoters, admin...))

	mux.Handle("GET /api/admin/motions/{id}", s.authMiddleware(s.getMotion, admin...))
	mux.Handle("PUT /api/admin/motions/{id}", s.authMiddleware(s.updateMotion, admin...))
	mux.Handle("DELETE /api/admin/motions/{id}", s.authMiddleware(s.deleteMotion, admin...))
	mux.Handle("PUT /api/admin/motions/{id}/status", s.authMiddleware(s.transitionMotion, admin...))
	mux.Handle("GET /api/admin/motions/{id}/vote-stats", s.authMiddleware(s.getVoteStats, admin...))
	mux.Handle("GET /api/admin/motions/{id}/results", s.authMiddleware(s.getResults, admin...))
	mux.Handle("GET /api/admin/motions/{id}/choices", s.authMiddleware(s.listChoices, admin...))
	mux.Handle("POST /api/admin/motions/{id}/choices", s.authMiddleware(s.createChoice, admin...))
	mux.Handle("PUT /api/admin/choices/{id}", s.authMiddleware(s.updateChoice, admin...))
	mux.Handle("DELETE /api/admin/choices/{id}", s.authMiddleware(s.deleteChoice, admin...))

	mux.Handle("GET /api/admin/settings", s.authMiddleware(s.getSettings, admin...))
	mux.Handle("PUT /api/admin/settings", s.authMiddleware(s.updateSettings, admin...))

	mux.Handle("GET /api/voter/motions", s.authMiddleware(s.listVoterMotions, voter...))
	mux.Handle("GET /api/voter/motions/{id}", s.authMiddleware(s.getVoterMotion, voter...))
	mux.Handle("POST /api/voter/motions/{id}/vote", s.authMiddleware(s.castVote, voter...))

	mux.Handle("GET /api/watcher/motions/{id}", s.authMiddleware(s.getWatcherMotion, watcher...))
	mux.Handle("GET /api/watcher/motions/{id}/results", s.authMiddleware(s.getWatcherResults, watcher...))
	mux.Handle("GET /api/watcher/motions/{id}/voters", s.authMiddleware(s.getWatcherVoters, watcher...))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ConVoteApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ConVoteApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *ConVoteApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *ConVoteApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}
