package service

import (
	"context"
	"errors"

	"github.com/h0rv/flowcanvas/internal/audit"
	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/settings"
)

// DeleteResult acknowledges a deletion.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// SaveView stores a named preset for the caller.
func (s *Service) SaveView(ctx context.Context, caller domain.Caller, v domain.SavedView) (domain.SavedView, error) {
	saved, err := s.views.Save(ctx, caller.AccountID, v)
	if err != nil {
		return domain.SavedView{}, err
	}
	s.recordAudit(ctx, audit.TypeViewSaved, caller, map[string]string{"name": saved.Name})
	return saved, nil
}

// ListViews returns the caller's saved views.
func (s *Service) ListViews(ctx context.Context, caller domain.Caller) ([]domain.SavedView, error) {
	return s.views.List(ctx, caller.AccountID)
}

// GetView returns one of the caller's saved views.
func (s *Service) GetView(ctx context.Context, caller domain.Caller, name string) (domain.SavedView, error) {
	return s.views.Get(ctx, caller.AccountID, name)
}

// DeleteView removes one of the caller's saved views.
func (s *Service) DeleteView(ctx context.Context, caller domain.Caller, name string) (DeleteResult, error) {
	if err := s.views.Delete(ctx, caller.AccountID, name); err != nil {
		return DeleteResult{}, err
	}
	s.recordAudit(ctx, audit.TypeViewDeleted, caller, map[string]string{"name": name})
	return DeleteResult{Deleted: true}, nil
}

// AdminConfigView is the configuration together with the caller's admin status.
type AdminConfigView struct {
	domain.AdminConfig
	IsAdmin bool `json:"isAdmin"`
}

// GetAdminConfig returns the full configuration.
func (s *Service) GetAdminConfig(ctx context.Context, caller domain.Caller) (AdminConfigView, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return AdminConfigView{}, err
	}
	return AdminConfigView{AdminConfig: cfg, IsAdmin: settings.IsAdmin(caller.AccountID, cfg)}, nil
}

// SaveAdminConfig applies a configuration patch. Only admins may save.
func (s *Service) SaveAdminConfig(ctx context.Context, caller domain.Caller, p settings.Patch) (domain.AdminConfig, error) {
	next, err := s.settings.Save(ctx, caller.AccountID, p)
	if err != nil {
		return domain.AdminConfig{}, err
	}
	s.recordAudit(ctx, audit.TypeConfigSaved, caller, nil)
	return next, nil
}

// AuditLog returns up to limit audit events, newest first.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	return s.audit.List(ctx, limit)
}

func (s *Service) recordAudit(ctx context.Context, eventType string, caller domain.Caller, details map[string]string) {
	if err := s.audit.Record(ctx, eventType, caller.AccountID, details); err != nil {
		s.log.Warn().Err(err).Str("type", eventType).Msg("audit record failed")
	}
}

// IsValidation reports whether err is a rejected request.
func IsValidation(err error) bool {
	var v *domain.ValidationError
	return errors.As(err, &v)
}
