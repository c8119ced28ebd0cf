package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailfwd/internal/model"
)

// ForwardingConfigRepo is the persistence surface the config service needs.
type ForwardingConfigRepo interface {
	Upsert(ctx context.Context, cfg *model.ForwardingConfig) error
	Find(ctx context.Context, domain string) (*model.ForwardingConfig, error)
	List(ctx context.Context) ([]model.ForwardingConfig, error)
	Delete(ctx context.Context, domain string) (bool, error)
	UpdateEnabled(ctx context.Context, domain string, enabled bool) (bool, error)
	UpdateStatus(ctx context.Context, domain, status string) (bool, error)
}

// DomainConfigService owns the forwarding configs and the policy deciding
// when forwarding is active for a domain.
type DomainConfigService struct {
	repo ForwardingConfigRepo
	// allowPending permits forwarding for domains still awaiting DNS
	// verification. Disabled domains never forward regardless.
	allowPending bool
	logger       *zap.Logger
}

func NewDomainConfigService(repo ForwardingConfigRepo, allowPending bool, logger *zap.Logger) *DomainConfigService {
	return &DomainConfigService{
		repo:         repo,
		allowPending: allowPending,
		logger:       logger,
	}
}

// SetConfig stores the config for cfg.Domain, replacing any prior record.
func (s *DomainConfigService) SetConfig(ctx context.Context, cfg *model.ForwardingConfig) error {
	cfg.Domain = strings.ToLower(strings.TrimSpace(cfg.Domain))
	if cfg.Status == "" {
		cfg.Status = model.StatusPending
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now()
	}

	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return err
	}

	s.logger.Info("Forwarding config stored",
		zap.String("domain", cfg.Domain),
		zap.String("forward_to", cfg.ForwardTo),
		zap.Bool("enabled", cfg.Enabled),
	)
	return nil
}

// GetConfig returns the config for the domain, nil when none exists.
func (s *DomainConfigService) GetConfig(ctx context.Context, domain string) (*model.ForwardingConfig, error) {
	return s.repo.Find(ctx, strings.ToLower(domain))
}

// ListConfigs returns every stored config.
func (s *DomainConfigService) ListConfigs(ctx context.Context) ([]model.ForwardingConfig, error) {
	return s.repo.List(ctx)
}

// RemoveConfig deletes the config and reports whether one existed.
func (s *DomainConfigService) RemoveConfig(ctx context.Context, domain string) (bool, error) {
	removed, err := s.repo.Delete(ctx, strings.ToLower(domain))
	if err == nil && removed {
		s.logger.Info("Forwarding config removed", zap.String("domain", strings.ToLower(domain)))
	}
	return removed, err
}

// SetEnabled flips the forwarding kill switch. False when no config exists.
func (s *DomainConfigService) SetEnabled(ctx context.Context, domain string, enabled bool) (bool, error) {
	return s.repo.UpdateEnabled(ctx, strings.ToLower(domain), enabled)
}

// SetVerificationStatus updates the lifecycle status. False when no config
// exists.
func (s *DomainConfigService) SetVerificationStatus(ctx context.Context, domain, status string) (bool, error) {
	return s.repo.UpdateStatus(ctx, strings.ToLower(domain), status)
}

// IsForwardingEnabled reports whether forwarding may run for the domain:
// a config exists, the kill switch is on, and the status is permitted by
// policy.
func (s *DomainConfigService) IsForwardingEnabled(ctx context.Context, domain string) (bool, error) {
	cfg, err := s.repo.Find(ctx, strings.ToLower(domain))
	if err != nil {
		return false, err
	}
	if cfg == nil || !cfg.Enabled {
		return false, nil
	}

	switch cfg.Status {
	case model.StatusVerified:
		return true, nil
	case model.StatusPending:
		return s.allowPending, nil
	default:
		return false, nil
	}
}

// GetForwardingEmail returns the destination address when forwarding is
// active for the domain, empty string otherwise. This is the single call
// the pipeline uses to decide whether and where to forward.
func (s *DomainConfigService) GetForwardingEmail(ctx context.Context, domain string) (string, error) {
	enabled, err := s.IsForwardingEnabled(ctx, domain)
	if err != nil || !enabled {
		return "", err
	}

	cfg, err := s.repo.Find(ctx, strings.ToLower(domain))
	if err != nil || cfg == nil {
		return "", err
	}
	return cfg.ForwardTo, nil
}
