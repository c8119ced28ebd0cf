package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"mailfwd/internal/dnsx"
	"mailfwd/internal/model"
	"mailfwd/internal/service"
	"mailfwd/internal/verify"
	"mailfwd/pkg/metrics"
)

// ForwardLogLister reads recent forward attempts for a domain.
type ForwardLogLister interface {
	ListByDomain(ctx context.Context, domain string, limit int) ([]model.ForwardLog, error)
}

type DomainHandler struct {
	configs *service.DomainConfigService
	engine  *verify.Engine
	logs    ForwardLogLister
	logger  *zap.Logger
}

func NewDomainHandler(
	configs *service.DomainConfigService,
	engine *verify.Engine,
	logs ForwardLogLister,
	logger *zap.Logger,
) *DomainHandler {
	return &DomainHandler{
		configs: configs,
		engine:  engine,
		logs:    logs,
		logger:  logger,
	}
}

// Register handles POST /domains. The verification token is generated here
// and never changes for the life of the config.
func (h *DomainHandler) Register(c *gin.Context) {
	var req struct {
		Domain    string `json:"domain"`
		ForwardTo string `json:"forward_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain == "" || !strings.Contains(domain, ".") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain"})
		return
	}
	if !strings.Contains(req.ForwardTo, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid forward_to address"})
		return
	}

	cfg := &model.ForwardingConfig{
		Domain:            domain,
		ForwardTo:         req.ForwardTo,
		VerificationToken: ulid.Make().String(),
		Status:            model.StatusPending,
		Enabled:           true,
	}

	if err := h.configs.SetConfig(c.Request.Context(), cfg); err != nil {
		h.logger.Error("Failed to store forwarding config", zap.String("domain", domain), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store config"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"config":      cfg,
		"dns_records": h.requiredRecords(domain, cfg.VerificationToken),
	})
}

// requiredRecords lists the records the owner must publish, in the same
// shape the verification engine checks them.
func (h *DomainHandler) requiredRecords(domain, token string) []gin.H {
	records := make([]gin.H, 0, len(h.engine.ExpectedMXHosts())+2)
	for i, host := range h.engine.ExpectedMXHosts() {
		records = append(records, gin.H{
			"type":     "MX",
			"host":     domain,
			"value":    host,
			"priority": (i + 1) * 10,
		})
	}
	records = append(records,
		gin.H{"type": "TXT", "host": domain, "value": h.engine.SPFRecordValue()},
		gin.H{"type": "TXT", "host": dnsx.VerificationLabel + "." + domain, "value": token},
	)
	return records
}

// List handles GET /domains.
func (h *DomainHandler) List(c *gin.Context) {
	configs, err := h.configs.ListConfigs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list configs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": configs})
}

// Get handles GET /domains/:domain.
func (h *DomainHandler) Get(c *gin.Context) {
	cfg, err := h.configs.GetConfig(c.Request.Context(), c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Delete handles DELETE /domains/:domain.
func (h *DomainHandler) Delete(c *gin.Context) {
	removed, err := h.configs.RemoveConfig(c.Request.Context(), c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove config"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// SetEnabled handles POST /domains/:domain/enable and /disable.
func (h *DomainHandler) SetEnabled(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.configs.SetEnabled(c.Request.Context(), c.Param("domain"), enabled)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update config"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"domain": strings.ToLower(c.Param("domain")), "enabled": enabled})
	}
}

// Verify handles POST /domains/:domain/verify: runs the live DNS check and,
// when everything passes, moves the stored status to verified. The stored
// status never moves back.
func (h *DomainHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()
	domain := c.Param("domain")

	cfg, err := h.configs.GetConfig(ctx, domain)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
		return
	}

	result := h.engine.VerifyDomainRecords(ctx, cfg.Domain, cfg.VerificationToken)
	status := h.engine.GetVerificationStatus(result)
	metrics.IncrementVerification(status.Status)

	if result.AllRecordsValid && cfg.Status != model.StatusVerified {
		if _, err := h.configs.SetVerificationStatus(ctx, cfg.Domain, model.StatusVerified); err != nil {
			h.logger.Error("Failed to persist verified status",
				zap.String("domain", cfg.Domain),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
			return
		}
		h.logger.Info("Domain verified", zap.String("domain", cfg.Domain))
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
		"status": status,
	})
}

// Status handles GET /domains/:domain/status: the live readiness view
// without touching the stored lifecycle status.
func (h *DomainHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	cfg, err := h.configs.GetConfig(ctx, c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "domain not found"})
		return
	}

	result := h.engine.VerifyDomainRecords(ctx, cfg.Domain, cfg.VerificationToken)
	c.JSON(http.StatusOK, h.engine.GetVerificationStatus(result))
}

// Logs handles GET /domains/:domain/logs.
func (h *DomainHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.logs.ListByDomain(c.Request.Context(), c.Param("domain"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
