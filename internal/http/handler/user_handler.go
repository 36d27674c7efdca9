package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/http/response"
	"bloggers-platform/internal/observability"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/service"
)

// UserHandler is the basic-auth admin surface over the users collection.
type UserHandler struct {
	users service.UserAdmin
}

func NewUserHandler(users service.UserAdmin) *UserHandler {
	return &UserHandler{users: users}
}

type userView struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        strconv.FormatUint(uint64(u.ID), 10),
		Login:     u.Login,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("pageNumber"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))

	result, err := h.users.List(repository.UserListQuery{
		PageRequest: repository.PageRequest{Page: page, PageSize: pageSize},
		SearchLogin: q.Get("searchLoginTerm"),
		SearchEmail: q.Get("searchEmailTerm"),
	})
	if err != nil {
		response.Status(w, http.StatusInternalServerError)
		return
	}

	views := repository.PageResult[userView]{
		Items:      make([]userView, 0, len(result.Items)),
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}
	for _, u := range result.Items {
		views.Items = append(views.Items, toUserView(u))
	}
	response.JSON(w, http.StatusOK, views)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var msgs []response.ErrorMessage
	msgs = validateLogin(req.Login, msgs)
	msgs = validatePassword(req.Password, msgs)
	msgs = validateEmail(req.Email, msgs)
	if len(msgs) > 0 {
		response.ValidationError(w, msgs...)
		return
	}

	user, err := h.users.CreateConfirmed(req.Login, req.Password, req.Email)
	switch {
	case err == nil:
		observability.Audit(r, "users.created", "user_id", user.ID, "login", user.Login)
		response.JSON(w, http.StatusCreated, toUserView(*user))
	case errors.Is(err, service.ErrLoginTaken):
		response.ValidationError(w, response.ErrorMessage{Message: "login already taken", Field: "login"})
	case errors.Is(err, service.ErrEmailTaken):
		response.ValidationError(w, response.ErrorMessage{Message: "email already taken", Field: "email"})
	default:
		response.Status(w, http.StatusInternalServerError)
	}
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Status(w, http.StatusNotFound)
		return
	}

	deleted, err := h.users.Delete(uint(id))
	if err != nil {
		response.Status(w, http.StatusInternalServerError)
		return
	}
	if !deleted {
		response.Status(w, http.StatusNotFound)
		return
	}
	observability.Audit(r, "users.deleted", "user_id", id)
	response.Status(w, http.StatusNoContent)
}
