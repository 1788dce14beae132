package http

import (
	"net/http"
	"time"

	"finanzas/internal/core"
)

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.identity.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(*user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, core.ErrNotFound)
		return
	}
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.identity.UpdateProfile(r.Context(), id, req.Name, req.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, core.ErrNotFound)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.identity.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type accountResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatorID int64     `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUserID(r)
	if err != nil {
		respondStatus(w, http.StatusUnauthorized, err.Error())
		return
	}

	accounts, err := s.identity.ListAccounts(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse{ID: a.ID, Name: a.Name, CreatorID: a.CreatorID, CreatedAt: a.CreatedAt})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUserID(r)
	if err != nil {
		respondStatus(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.identity.CreateAccount(r.Context(), req.Name, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleAccountUsers(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	users, err := s.identity.AccountUsers(r.Context(), accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddMembership(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	var req struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.identity.AddMembership(r.Context(), req.UserID, accountID, core.Role(req.Role)); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request, _ int64, actingID int64) {
	targetID, err := pathID(r, "userID")
	if err != nil {
		respondError(w, r, core.ErrNotFound)
		return
	}

	if err := s.identity.RemoveUser(r.Context(), targetID, actingID); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
