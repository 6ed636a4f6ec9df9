package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/gin-gonic/gin"
)

// AccountManager is the service behind the account endpoints.
type AccountManager interface {
	Register(ctx context.Context, id, nickname string) (*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	Withdraw(ctx context.Context, id string) error
}

type AccountHandler struct {
	accounts AccountManager
}

func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type RegisterAccountRequest struct {
	Nickname string `json:"nickname" validate:"required,min=2,max=50"`
}

type AccountResponse struct {
	ID        string     `json:"id"`
	Nickname  string     `json:"nickname"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Nickname:  a.Nickname,
		Deleted:   a.Deleted,
		DeletedAt: a.DeletedAt,
		CreatedAt: a.CreatedAt,
	}
}

func (h *AccountHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("/me", h.Me)
	g.PUT("/withdrawal", h.Withdraw)
}

func (h *AccountHandler) Create(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body"})
		return
	}
	if details := validateRequest(req); details != nil {
		respondWithValidationError(c, details)
		return
	}

	a, err := h.accounts.Register(c.Request.Context(), ownerID(c), req.Nickname)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAccountResponse(a))
}

func (h *AccountHandler) Me(c *gin.Context) {
	a, err := h.accounts.Get(c.Request.Context(), ownerID(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(a))
}

// Withdraw soft-deletes the caller's account. The data is removed by the
// cascade delete job once the grace period has passed.
func (h *AccountHandler) Withdraw(c *gin.Context) {
	if err := h.accounts.Withdraw(c.Request.Context(), ownerID(c)); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
