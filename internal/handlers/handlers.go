package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finboard/internal/apperr"
	"finboard/internal/automation"
	"finboard/internal/categorize"
	"finboard/internal/database"
	"finboard/internal/models"
	"finboard/internal/report"
	"finboard/internal/settings"
	"finboard/internal/valuator"
)

type Handler struct {
	repo        *database.Repo
	orch        *automation.Orchestrator
	builder     *report.Builder
	settingsSvc *settings.Service
	suggester   categorize.Suggester
	log         *logrus.Logger
}

func NewHandler(repo *database.Repo, orch *automation.Orchestrator, builder *report.Builder,
	settingsSvc *settings.Service, suggester categorize.Suggester, log *logrus.Logger) *Handler {
	return &Handler{
		repo:        repo,
		orch:        orch,
		builder:     builder,
		settingsSvc: settingsSvc,
		suggester:   suggester,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/", h.identity)
	api.GET("/portfolio/metrics", h.GetPortfolioMetrics)
	api.GET("/settings", h.GetSettings)
	api.POST("/automation/run", h.RunAutomation)
	api.GET("/insights", h.GetInsights)
	api.GET("/report", h.GetReport)
	api.GET("/report/export", h.ExportReport)
	api.POST("/transactions", h.PostTransaction)
}

// identity resolves (userID, email) from the inbound request. Credential
// verification lives upstream; a request without a resolvable identity is
// rejected here.
func (h *Handler) identity(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	c.Set("userID", userID)
	c.Set("userEmail", c.GetHeader("X-User-Email"))
	c.Next()
}

func (h *Handler) GetPortfolioMetrics(c *gin.Context) {
	userID := c.GetString("userID")
	positions, err := h.repo.Positions(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, "load positions", err)
		return
	}
	c.JSON(http.StatusOK, valuator.ComputeMetrics(positions))
}

func (h *Handler) GetSettings(c *gin.Context) {
	userID := c.GetString("userID")
	cfg, err := h.settingsSvc.Ensure(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, "ensure settings", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type runRequest struct {
	Period string `json:"period"`
}

func (h *Handler) RunAutomation(c *gin.Context) {
	userID := c.GetString("userID")

	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var period models.Period
	if req.Period != "" {
		p, err := models.ParsePeriod(req.Period)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		period = p
	}

	res, err := h.orch.Run(c.Request.Context(), userID, period)
	if err != nil {
		h.log.Errorf("automation run failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "automation run failed", "status": res.Status})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetInsights(c *gin.Context) {
	userID := c.GetString("userID")
	period := models.CurrentPeriod()
	if q := c.Query("period"); q != "" {
		p, err := models.ParsePeriod(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		period = p
	}

	insights, err := h.repo.InsightsForPeriod(c.Request.Context(), userID, period)
	if err != nil {
		if apperr.IsKind(err, apperr.SchemaMissing) {
			c.JSON(http.StatusOK, gin.H{"insights": []models.Insight{}, "warning": "insights table missing; run the schema migration"})
			return
		}
		h.writeError(c, "load insights", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights, "period": period})
}

func (h *Handler) GetReport(c *gin.Context) {
	userID := c.GetString("userID")
	month, ok := h.monthParam(c)
	if !ok {
		return
	}
	r, err := h.builder.Build(c.Request.Context(), userID, month)
	if err != nil {
		h.writeError(c, "build report", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) ExportReport(c *gin.Context) {
	userID := c.GetString("userID")
	email := c.GetString("userEmail")
	month, ok := h.monthParam(c)
	if !ok {
		return
	}

	r, err := h.builder.Build(c.Request.Context(), userID, month)
	if err != nil {
		h.writeError(c, "build report", err)
		return
	}
	data, err := report.Export(r)
	if err != nil {
		h.log.Errorf("export report failed for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}

	filename := fmt.Sprintf("report-%s.xlsx", r.Summary.Month)
	if err := h.builder.RecordDelivery(c.Request.Context(), userID, email, "generated", filename, r); err != nil {
		h.log.Warnf("record delivery failed for %s: %v", userID, err)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

type transactionRequest struct {
	AccountID   string    `json:"account_id" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Category    string    `json:"category"`
	Type        string    `json:"type" binding:"required"`
	Amount      string    `json:"amount" binding:"required"`
	OccurredAt  time.Time `json:"occurred_at" binding:"required"`
}

func (h *Handler) PostTransaction(c *gin.Context) {
	userID := c.GetString("userID")

	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid post body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format"})
		return
	}
	typ := models.TransactionType(req.Type)
	if typ != models.TransactionIncome && typ != models.TransactionExpense {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be income or expense"})
		return
	}

	category := req.Category
	if category == "" {
		// soft dependency: suggestion failures fall back inside the adapter
		suggested, err := h.suggester.SuggestCategory(c.Request.Context(), req.Description)
		if err != nil {
			h.log.Warnf("categorize failed: %v", err)
			suggested = categorize.DefaultCategory
		}
		category = suggested
	}

	id, err := h.repo.InsertTransaction(c.Request.Context(), models.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		Description: req.Description,
		Category:    category,
		Type:        typ,
		Amount:      amount,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		h.writeError(c, "insert transaction", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction_id": id, "category": category})
}

// monthParam parses the optional ?month=YYYY-MM query; empty means the
// current month (resolved downstream).
func (h *Handler) monthParam(c *gin.Context) (models.Period, bool) {
	q := c.Query("month")
	if q == "" {
		return "", true
	}
	p, err := models.ParsePeriod(q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return p, true
}

func (h *Handler) writeError(c *gin.Context, op string, err error) {
	h.log.Errorf("%s failed: %v", op, err)
	switch apperr.KindOf(err) {
	case apperr.ValidationFailed:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.NotAuthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
	case apperr.SchemaMissing:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "schema missing; run the schema migration"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
