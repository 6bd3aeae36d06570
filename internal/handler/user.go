package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/model"
	"github.com/sakif/messaging-api/internal/service"
)

// UserHandler serves registration, login and the user directory.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → POST /register
//   - HandleLogin    → POST /login
//   - HandleListAll  → GET  /list_all_users
//
// Handlers only translate HTTP to service calls and back. Every rule
// (required fields, duplicate emails, password checks) lives in
// service.UserService.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID int64 `json:"user_id"`
}

type usersResponse struct {
	Users []model.UserSummary `json:"users"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register
// REQUEST BODY:  {"email","password","first_name","last_name"}
// RESPONSE: 201  {"user_id","email","first_name","last_name"}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// model.User hides the hash and timestamp via `json:"-"`.
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin checks credentials and returns the user's id.
//
// HTTP: POST /login
// REQUEST BODY: {"email","password"}
// RESPONSE: 200 {"user_id"}
//
// No session or token is issued: the client keeps the id itself.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{UserID: id})
}

// HandleListAll lists every user except the requester.
//
// HTTP: GET /list_all_users?requester_user_id=<int>
// RESPONSE: 200 {"users":[{"user_id","email","first_name","last_name"}]}
func (h *UserHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	id, present, err := queryID(r, "requester_user_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !present || id == 0 {
		writeError(w, r, h.logger, apperror.ValidationFailed("requester_user_id", "requester_user_id is required."))
		return
	}

	users, err := h.users.ListUsers(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if users == nil {
		users = []model.UserSummary{}
	}

	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}
