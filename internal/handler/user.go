package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/service"
)

// maxBodyBytes caps request bodies; a user record is a few KB at most.
const maxBodyBytes = 1 << 20

// UserService is the slice of *service.UserService the handler needs.
// Tests substitute an in-memory fake.
type UserService interface {
	Create(ctx context.Context, in service.CreateUserInput) (*model.UserDetails, error)
	Get(ctx context.Context, id string) (*model.UserDetails, error)
	List(ctx context.Context) ([]model.UserDetails, error)
	Search(ctx context.Context, in service.SearchInput) ([]model.UserDetails, error)
	Update(ctx context.Context, id string, in service.UpdateUserInput) (*model.UserDetails, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.Stats, error)
}

// UserHandler serves the /v1/users resource.
type UserHandler struct {
	svc    UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleList returns every user.
//
// HTTP: GET /v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// HandleSearch filters users by query parameters.
//
// HTTP: GET /v1/users/search?name=&surname=&email=&gender=&date_of_birth=
//
//	&date_of_birth_from=&date_of_birth_to=&limit=&offset=
//
// Unknown parameters are ignored. limit and offset must be integers when
// present.
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, ok := intParam(w, q.Get("limit"), "limit")
	if !ok {
		return
	}
	offset, ok := intParam(w, q.Get("offset"), "offset")
	if !ok {
		return
	}

	users, err := h.svc.Search(r.Context(), service.SearchInput{
		Name:            q.Get("name"),
		Surname:         q.Get("surname"),
		Email:           q.Get("email"),
		Gender:          q.Get("gender"),
		DateOfBirth:     q.Get("date_of_birth"),
		DateOfBirthFrom: q.Get("date_of_birth_from"),
		DateOfBirthTo:   q.Get("date_of_birth_to"),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

// HandleGet returns one user with address and card.
//
// HTTP: GET /v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCreate stores a new user.
//
// HTTP: POST /v1/users
// RESPONSE: 201 Created with the stored record.
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if !h.decode(w, r, &in) {
		return
	}

	user, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleUpdate applies a partial update. Fields absent from the body (or
// null) keep their stored value.
//
// HTTP: PUT /v1/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateUserInput
	if !h.decode(w, r, &in) {
		return
	}

	user, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes a user.
//
// HTTP: DELETE /v1/users/{id}
// RESPONSE: 204 No Content.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a single JSON object from the body. On failure it writes a
// 400 and returns false.
func (h *UserHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		h.logger.Warn("invalid request body", slog.String("error", err.Error()))

		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			writeBadRequest(w, "", "Request body is required")
		case errors.As(err, &typeErr):
			writeBadRequest(w, typeErr.Field, "Field "+typeErr.Field+" has the wrong type")
		default:
			writeBadRequest(w, "", "Invalid JSON body")
		}
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, name, name+" must be an integer")
		return 0, false
	}
	return n, true
}

// nonNil makes empty results encode as [] rather than null.
func nonNil(users []model.UserDetails) []model.UserDetails {
	if users == nil {
		return []model.UserDetails{}
	}
	return users
}
