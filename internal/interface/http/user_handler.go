package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-accounts/internal/application"
	"github.com/oksasatya/go-ddd-user-accounts/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/response"
	"github.com/oksasatya/go-ddd-user-accounts/pkg/validation"
)

const dateLayout = "2006-01-02"

type UserHandler struct {
	Svc    UserUseCases
	Logger *logrus.Logger
}

func NewUserHandler(svc UserUseCases, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// FindAll GET /api/users (admin)
func (h *UserHandler) FindAll(c *gin.Context) {
	users, err := h.Svc.FindAll(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toViews(users), "Users found", nil)
}

func parseDay(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

// Filter GET /api/users/filter
func (h *UserHandler) Filter(c *gin.Context) {
	var q filterUserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}

	in := application.UserFilter{
		UserID:         q.UserID,
		Email:          q.Email,
		Username:       q.Username,
		IsVerified:     q.IsVerified,
		CreatedAt:      parseDay(q.CreatedAt),
		CreatedAtStart: parseDay(q.CreatedAtStart),
		Page:           q.Page,
		Limit:          q.Limit,
		OrderBy:        q.OrderBy,
	}
	// The end day is inclusive.
	if end := parseDay(q.CreatedAtEnd); end != nil {
		e := end.Add(24*time.Hour - time.Nanosecond)
		in.CreatedAtEnd = &e
	}

	page, err := h.Svc.FindByFilter(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toViews(page.Data), "Users found", response.PageMeta{
		Total:      page.Total,
		Limit:      page.Limit,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	})
}

// FindByEmail GET /api/users/email/:email
func (h *UserHandler) FindByEmail(c *gin.Context) {
	u, err := h.Svc.FindByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u), "User found", nil)
}

// FindByID GET /api/users/:userId
func (h *UserHandler) FindByID(c *gin.Context) {
	u, err := h.Svc.FindByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(u), "User found", nil)
}

// Delete DELETE /api/users/:email
func (h *UserHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.Svc.FindByEmail(ctx, c.Param("email"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	ok, err := h.Svc.DeleteUser(ctx, u)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !ok {
		response.Error[any](c, http.StatusInternalServerError, "delete user failed", nil)
		return
	}
	response.Success(c, http.StatusOK, ok, "Delete user success", nil)
}

// UpdateAction PATCH /api/users/action/:action applies an action to the caller's own account.
func (h *UserHandler) UpdateAction(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email := c.GetString(middleware.CtxUserEmailKey)
	if email == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ok, err := h.Svc.UpdateUser(c.Request.Context(), email, c.Param("action"), req.toUpdate())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	msg := "User updated"
	if !ok {
		msg = "User not updated"
	}
	response.Success(c, http.StatusOK, ok, msg, nil)
}
