package api

import (
	"encoding/json"
	"net/http"

	"github.com/convote/go-convote/internal/database"
)

type SettingsResponse struct {
	LoginEnabled bool `json:"login_enabled"`
}

func (s *ConVoteApp) getSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := s.db.GetSettings()
	if err != nil {
		s.log.Println("get settings:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, SettingsResponse{LoginEnabled: settings.LoginEnabled})
}

func (s *ConVoteApp) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.UpdateSettings(database.Settings{LoginEnabled: req.LoginEnabled}); err != nil {
		s.log.Println("update settings:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, SettingsResponse{LoginEnabled: req.LoginEnabled})
}
