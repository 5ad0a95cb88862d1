package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "rifas/internal/errors"
	"rifas/internal/models"
	"rifas/internal/repository"
)

const reportSheet = "Pagamentos"

var reportHeader = []interface{}{"Data", "Número", "Payment ID", "Usuário", "Método", "Status", "Valor"}

type ReportService struct {
	repos *repository.Repositories
}

func NewReportService(repos *repository.Repositories) *ReportService {
	return &ReportService{repos: repos}
}

// PaymentsWorkbook exports the payment logs of a raffle as xlsx and
// returns the file name
func (s *ReportService) PaymentsWorkbook(ctx context.Context, tenantID, rifaID string) ([]byte, string, error) {
	raffle, err := s.repos.Raffles.GetByID(ctx, tenantID, rifaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, "", fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}

	logs, err := s.repos.PaymentLogs.ListByRaffle(ctx, tenantID, rifaID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list payments: %w", err)
	}

	buf, err := buildPaymentsWorkbook(raffle, logs)
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("rifa-%s-pagamentos.xlsx", raffle.ID), nil
}

func buildPaymentsWorkbook(raffle *models.Raffle, logs []models.PaymentLog) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(reportSheet, "A1", &[]interface{}{raffle.Titulo}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(reportSheet, "A2", &reportHeader); err != nil {
		return nil, err
	}

	var total models.Money
	for i, p := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		userID := ""
		if p.UserID != nil {
			userID = *p.UserID
		}
		row := []interface{}{
			p.CreatedAt.Format("2006-01-02 15:04:05"),
			p.Numero,
			p.PaymentID,
			userID,
			p.Metodo,
			p.Status,
			p.Valor.String(),
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, err
		}

		switch p.Status {
		case models.PaymentLogPago:
			total += p.Valor
		case models.PaymentLogEstornado:
			total -= p.Valor
		}
	}

	totalCell, err := excelize.CoordinatesToCellName(6, len(logs)+3)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(reportSheet, totalCell, &[]interface{}{"Total", total.String()}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
