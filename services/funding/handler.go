package funding

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bondfund/pkg/db/pagination"
	"bondfund/pkg/errutil"
	"bondfund/pkg/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func RegisterRoutes(engine *gin.Engine, h *Handler) {
	campaign := engine.Group("/v1/campaign")
	campaign.GET("", h.GetCampaign)
	campaign.POST("/invest", h.Invest)
	campaign.POST("/price", h.SetBondPrice)
	campaign.POST("/claim", h.Claim)
	campaign.GET("/investors", h.ListInvestors)
	campaign.GET("/investors/:address", h.GetInvestor)
	campaign.GET("/investors/:address/claimable", h.GetClaimable)

	roles := engine.Group("/v1/roles")
	roles.POST("/grant", h.GrantRole)
	roles.POST("/revoke", h.RevokeRole)
	roles.GET("/:role/:address", h.HasRole)
}

type investBody struct {
	Amount string `json:"amount" binding:"required"`
}

func (h *Handler) Invest(c *gin.Context) {
	caller := middleware.CallerFrom(c.Request.Context())

	var body investBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		c.Error(errInvalidAmount())
		return
	}

	contribution, err := h.svc.Invest(c.Request.Context(), &InvestRequest{
		Address: caller,
		Amount:  amount,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":             contribution.Code,
		"address":          contribution.Address,
		"amount":           contribution.Amount.String(),
		"investment_order": contribution.InvestmentOrder,
	})
}

type priceBody struct {
	Price string `json:"price" binding:"required"`
}

func (h *Handler) SetBondPrice(c *gin.Context) {
	caller := middleware.CallerFrom(c.Request.Context())

	var body priceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		c.Error(errInvalidPrice())
		return
	}

	campaign, err := h.svc.SetBondPriceAndInitiateMinting(c.Request.Context(), caller, price)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bond_price":        campaign.BondPrice.Decimal.String(),
		"total_bond_tokens": campaign.TotalBondTokens.String(),
	})
}

func (h *Handler) Claim(c *gin.Context) {
	caller := middleware.CallerFrom(c.Request.Context())

	claim, err := h.svc.ClaimBondTokens(c.Request.Context(), caller)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    claim.Code,
		"address": claim.Address,
		"amount":  claim.Amount.String(),
	})
}

func (h *Handler) GetCampaign(c *gin.Context) {
	summary, err := h.svc.GetCampaignSummary(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) GetInvestor(c *gin.Context) {
	detail, err := h.svc.GetInvestorDetail(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetClaimable(c *gin.Context) {
	claimable, err := h.svc.GetClaimableTokens(c.Request.Context(), c.Param("address"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":   c.Param("address"),
		"claimable": claimable.String(),
	})
}

func (h *Handler) ListInvestors(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.Error(errutil.BadRequest("invalid pagination", errutil.WithErr(err)))
		return
	}

	result, err := h.svc.ListInvestors(c.Request.Context(), page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type roleBody struct {
	Address string `json:"address" binding:"required"`
	Role    string `json:"role" binding:"required"`
}

func (h *Handler) GrantRole(c *gin.Context) {
	caller := middleware.CallerFrom(c.Request.Context())

	var body roleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if err := h.svc.GrantRole(c.Request.Context(), caller, body.Address, body.Role); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": body.Address, "role": body.Role})
}

func (h *Handler) RevokeRole(c *gin.Context) {
	caller := middleware.CallerFrom(c.Request.Context())

	var body roleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	if err := h.svc.RevokeRole(c.Request.Context(), caller, body.Address, body.Role); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": body.Address, "role": body.Role})
}

func (h *Handler) HasRole(c *gin.Context) {
	role := c.Param("role")
	address := c.Param("address")

	ok, err := h.svc.HasRole(c.Request.Context(), address, role)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": address, "role": role, "has_role": ok})
}
