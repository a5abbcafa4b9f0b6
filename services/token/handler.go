package token

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(engine *gin.Engine, h *Handler) {
	v1 := engine.Group("/v1/tokens")
	v1.GET("/:symbol", h.GetToken)
	v1.GET("/:symbol/balances/:address", h.GetBalance)
}

func (h *Handler) GetToken(c *gin.Context) {
	t, err := h.svc.GetToken(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   t.Symbol,
		"name":     t.Name,
		"decimals": t.Decimals,
	})
}

func (h *Handler) GetBalance(c *gin.Context) {
	symbol := c.Param("symbol")
	address := c.Param("address")

	if _, err := h.svc.GetToken(c.Request.Context(), symbol); err != nil {
		c.Error(err)
		return
	}

	amount, err := h.svc.BalanceOf(c.Request.Context(), symbol, address)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":  symbol,
		"address": address,
		"amount":  amount.String(),
	})
}
