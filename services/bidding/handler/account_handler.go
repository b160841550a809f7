package handler

import (
	"context"
	"errors"
	"net/http"

	model "auction-platform/internal/models"
	"auction-platform/services/bidding/helpers"
	"auction-platform/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -destination=mock_account_service.go -package=handler auction-platform/services/bidding/handler AccountServiceInterface

type AccountServiceInterface interface {
	Register(ctx context.Context, username, password, email string, role model.Role) (model.User, error)
	Login(ctx context.Context, username, password string) (model.User, string, error)
	GetProfile(ctx context.Context, userID string) (model.User, error)
}

type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// RegisterHandler handles POST /register
func (h *AccountHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Username, req.Password, req.Email, model.Role(req.Role))
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "registration successful")
	helpers.LogSuccess("RegisterHandler", "registration successful", map[string]any{"user_id": user.UserID})
}

// LoginHandler handles POST /login
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.LoginResponse{Token: token, User: user}, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": user.UserID})
}

// ProfileHandler handles GET /profile
func (h *AccountHandler) ProfileHandler(c *gin.Context) {
	userID, _, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("authentication required"), "authentication required")
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondError(c, "ProfileHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user, "profile retrieved successfully")
}
