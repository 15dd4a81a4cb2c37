package api

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/convote/go-convote/internal/stats"
)

func (s *ConVoteApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates the bearer token, gates the request on the
// allowed roles (empty means any authenticated user), and appends an
// activity log entry. The log is the substrate for quorum estimation, so
// every authenticated request counts as presence.
func (s *ConVoteApp) authMiddleware(next http.HandlerFunc, allowedRoles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		userId, role, err := s.extractSessionFromToken(tokenString)
		if err != nil {
			s.log.Printf("failed to extract session from token: %v", err)
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, role) {
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		// failure to record activity must not fail the request
		if err := s.db.CreateActivityLogEntry(userId, r.URL.Path, time.Now().UTC()); err != nil {
			s.log.Printf("record activity: %v", err)
		}
		s.stats.Incr(stats.MetricApiRequests)

		ctx := withSession(r.Context(), userId, role)
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}
