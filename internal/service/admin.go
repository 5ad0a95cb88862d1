package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"rifas/internal/auth"
	apperrors "rifas/internal/errors"
	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/repository"
)

const (
	entityUser   = "user"
	financeLimit = 100
)

// AdminService backs the tenant back-office: users, audit trail and finance
type AdminService struct {
	repos *repository.Repositories
}

func NewAdminService(repos *repository.Repositories) *AdminService {
	return &AdminService{repos: repos}
}

func (s *AdminService) ListUsers(ctx context.Context, tenantID string, page models.Page) (*models.UserList, error) {
	page = page.Normalize()
	users, total, err := s.repos.Users.List(ctx, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &models.UserList{Users: users, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *AdminService) GetUser(ctx context.Context, tenantID, userID string) (*models.User, error) {
	user, err := s.repos.Users.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	return user, nil
}

// UpdateUser applies the fields present in req. Admins cannot deactivate
// or demote themselves, and only a global admin grants global_admin.
func (s *AdminService) UpdateUser(ctx context.Context, actor models.Actor, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, actor.TenantID, userID)
	if err != nil {
		return nil, err
	}
	old := userAuditView(user)

	if err := applyUserUpdate(actor, user, req); err != nil {
		return nil, err
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := writeAudit(ctx, s.repos.Audit, actor, models.AuditUserUpdated, entityUser, user.ID, old, userAuditView(user)); err != nil {
		logger.WithContext(ctx).Error("Failed to audit user change", "error", err, "user_id", user.ID)
	}
	logger.WithContext(ctx).Info("User updated", "user_id", user.ID, "is_active", user.IsActive, "role", user.Role)
	return user, nil
}

func applyUserUpdate(actor models.Actor, user *models.User, req *models.UpdateUserRequest) error {
	self := actor.ID == user.ID
	if req.IsActive != nil {
		if self && !req.IsActive.Bool() {
			return fmt.Errorf("%w: cannot deactivate your own account", apperrors.ErrValidation)
		}
		user.IsActive = req.IsActive.Bool()
	}
	if req.Role != nil {
		role := *req.Role
		switch {
		case role == models.RoleGlobalAdmin && actor.Role != models.RoleGlobalAdmin:
			return fmt.Errorf("%w: only a global admin grants global_admin", apperrors.ErrForbidden)
		case user.Role == models.RoleGlobalAdmin && actor.Role != models.RoleGlobalAdmin:
			return fmt.Errorf("%w: cannot change a global admin", apperrors.ErrForbidden)
		case self && !models.IsAdminRole(role):
			return fmt.Errorf("%w: cannot remove your own admin role", apperrors.ErrValidation)
		}
		user.Role = role
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			user.Phone = nil
		} else {
			user.Phone = &phone
		}
	}
	if req.WhatsappOptIn != nil {
		user.WhatsappOptIn = req.WhatsappOptIn.Bool()
	}
	return nil
}

// userAuditView leaves the password hash out of the audit trail
func userAuditView(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"role":            u.Role,
		"is_active":       u.IsActive,
		"phone":           u.Phone,
		"whatsapp_opt_in": u.WhatsappOptIn,
	}
}

func (s *AdminService) Audit(ctx context.Context, tenantID string, q models.AuditQuery) (*models.AuditPage, error) {
	q.Page = q.Page.Normalize()
	logs, total, err := s.repos.Audit.List(ctx, tenantID, q)
	if err != nil {
		return nil, err
	}
	return &models.AuditPage{Logs: logs, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// Finance reports the tenant's latest payment records and totals
func (s *AdminService) Finance(ctx context.Context, tenantID string, q models.FinanceQuery) (*models.FinanceReport, error) {
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", apperrors.ErrValidation)
	}
	return s.finance(ctx, tenantID, repository.FinanceFilter{Start: q.StartDate, End: q.EndDate})
}

// RaffleFinance reports every payment record of one raffle
func (s *AdminService) RaffleFinance(ctx context.Context, tenantID, rifaID string) (*models.FinanceReport, error) {
	raffle, err := s.repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}

	report, err := s.finance(ctx, tenantID, repository.FinanceFilter{RifaID: rifaID})
	if err != nil {
		return nil, err
	}
	report.RifaID = raffle.ID
	report.Rifa = raffle.Titulo
	return report, nil
}

func (s *AdminService) finance(ctx context.Context, tenantID string, filter repository.FinanceFilter) (*models.FinanceReport, error) {
	paid, canceled, err := s.repos.PaymentLogs.Totals(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}
	limit := financeLimit
	if filter.RifaID != "" {
		limit = math.MaxInt32
	}
	logs, err := s.repos.PaymentLogs.Recent(ctx, tenantID, filter, limit)
	if err != nil {
		return nil, err
	}
	return &models.FinanceReport{TotalArrecadado: paid, TotalCancelado: canceled, Logs: logs}, nil
}

func (s *AdminService) Dashboard(ctx context.Context, tenantID string) (*models.DashboardSummary, error) {
	summary, reservations, err := s.repos.Dashboard.Summary(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard: %w", err)
	}
	summary.TaxaConversao = conversionRate(summary.TotalPagoCount, reservations)
	return summary, nil
}

// conversionRate is paid over reserved, as a percentage with two decimals
func conversionRate(paid, reservations int) float64 {
	if reservations <= 0 {
		return 0
	}
	return math.Round(float64(paid)/float64(reservations)*10000) / 100
}
