package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/convote/go-convote/internal/types"
)

type CreatePoolRequest struct {
	Name string `json:"name"`
}

type ReplacePoolMembersRequest struct {
	UserIds []int `json:"user_ids"`
}

func (s *ConVoteApp) listPools(w http.ResponseWriter, _ *http.Request) {
	dbPools, err := s.db.ListPools()
	if err != nil {
		s.log.Println("list pools:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pools := make([]types.Pool, 0, len(dbPools))
	for _, p := range dbPools {
		pools = append(pools, types.Pool{Id: p.Id, Name: p.Name, CreatedAt: p.CreatedAt})
	}

	s.writeJson(w, http.StatusOK, pools)
}

func (s *ConVoteApp) createPool(w http.ResponseWriter, r *http.Request) {
	var req CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pool, err := s.db.CreatePool(req.Name)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Pool{Id: pool.Id, Name: pool.Name, CreatedAt: pool.CreatedAt})
}

func (s *ConVoteApp) getPool(w http.ResponseWriter, r *http.Request) {
	poolId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pool, err := s.db.GetPoolById(poolId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Pool{Id: pool.Id, Name: pool.Name, CreatedAt: pool.CreatedAt})
}

func (s *ConVoteApp) deletePool(w http.ResponseWriter, r *http.Request) {
	poolId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetPoolById(poolId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeletePool(poolId); err != nil {
		s.log.Println("delete pool:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *ConVoteApp) listPoolMembers(w http.ResponseWriter, r *http.Request) {
	poolId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetPoolById(poolId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	members, err := s.db.ListPoolMembers(poolId)
	if err != nil {
		s.log.Println("list pool members:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users := make([]types.User, 0, len(members))
	for _, u := range members {
		users = append(users, userResponse(u))
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *ConVoteApp) replacePoolMembers(w http.ResponseWriter, r *http.Request) {
	poolId, err := pathId(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetPoolById(poolId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ReplacePoolMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.ReplacePoolMembers(poolId, req.UserIds); err != nil {
		s.log.Println("replace pool members:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}
