package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/warranty-tracker/internal/models"
)

const warrantyColumns = `id, user_id, product_id, product_name, warranty_type, status,
	start_date, expiry_date, duration_months, is_claimed, is_void,
	original_end_date, extended_by, extension_date, renewal_count, analysis::text, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWarranty(row rowScanner) (*models.Warranty, error) {
	var (
		w        models.Warranty
		analysis *string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.ProductID, &w.ProductName, &w.Type, &w.Status,
		&w.StartDate, &w.ExpiryDate, &w.DurationMonths, &w.IsClaimed, &w.IsVoid,
		&w.OriginalEndDate, &w.ExtendedBy, &w.ExtensionDate, &w.RenewalCount, &analysis, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if w.Analysis, err = models.DecodeAnalysis(analysis); err != nil {
		return nil, err
	}
	w.StartDate = utc(w.StartDate)
	w.ExpiryDate = utc(w.ExpiryDate)
	w.OriginalEndDate = utc(w.OriginalEndDate)
	w.ExtensionDate = utc(w.ExtensionDate)
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}

// CreateWarranty сохраняет новую гарантию. ID задается вызывающим.
func (s *Storage) CreateWarranty(ctx context.Context, w *models.Warranty) error {
	const op = "storage.CreateWarranty"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	analysis, err := models.EncodeAnalysis(w.Analysis)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO warranties (id, user_id, product_id, product_name, warranty_type, status,
				start_date, expiry_date, duration_months, is_claimed, is_void,
				original_end_date, extended_by, extension_date, renewal_count, analysis, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb, $17, $18)`
	_, err = s.DB.ExecContext(ctx, query,
		w.ID, w.UserID, w.ProductID, w.ProductName, w.Type, w.Status,
		w.StartDate, w.ExpiryDate, w.DurationMonths, w.IsClaimed, w.IsVoid,
		w.OriginalEndDate, w.ExtendedBy, w.ExtensionDate, w.RenewalCount, analysis, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetWarranty возвращает гарантию по ID или models.ErrWarrantyNotFound.
func (s *Storage) GetWarranty(ctx context.Context, id string) (*models.Warranty, error) {
	const op = "storage.GetWarranty"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + warrantyColumns + ` FROM warranties WHERE id = $1`
	w, err := scanWarranty(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrWarrantyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}

// UpdateWarranty перезаписывает изменяемые поля: тип, статус, даты, флаги,
// аудит продлений и анализ документа.
func (s *Storage) UpdateWarranty(ctx context.Context, w *models.Warranty) error {
	const op = "storage.UpdateWarranty"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	analysis, err := models.EncodeAnalysis(w.Analysis)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE warranties
			  SET warranty_type = $1, status = $2, start_date = $3, expiry_date = $4, duration_months = $5,
			      is_claimed = $6, is_void = $7, original_end_date = $8, extended_by = $9,
			      extension_date = $10, renewal_count = $11, analysis = $12::jsonb, updated_at = $13
			  WHERE id = $14`
	result, err := s.DB.ExecContext(ctx, query,
		w.Type, w.Status, w.StartDate, w.ExpiryDate, w.DurationMonths,
		w.IsClaimed, w.IsVoid, w.OriginalEndDate, w.ExtendedBy,
		w.ExtensionDate, w.RenewalCount, analysis, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOneRow(result, op)
}

// UpdateStatus записывает пересчитанный статус.
func (s *Storage) UpdateStatus(ctx context.Context, id string, status models.WarrantyStatus, updatedAt time.Time) error {
	const op = "storage.UpdateStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE warranties SET status = $1, updated_at = $2 WHERE id = $3`,
		status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectOneRow(result, op)
}

// ListForReconcile возвращает страницу непожизненных, не заявленных и не аннулированных
// гарантий с ID больше afterID, упорядоченную по ID. Пустой afterID — первая страница.
func (s *Storage) ListForReconcile(ctx context.Context, afterID string, limit int) ([]models.Warranty, error) {
	const op = "storage.ListForReconcile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if afterID == "" {
		afterID = "00000000-0000-0000-0000-000000000000"
	}

	query := `SELECT ` + warrantyColumns + `
			  FROM warranties
			  WHERE warranty_type <> 'LIFETIME' AND NOT is_claimed AND NOT is_void
			    AND id > $1::uuid
			  ORDER BY id
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []models.Warranty
	for rows.Next() {
		w, err := scanWarranty(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func expectOneRow(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrWarrantyNotFound)
	}
	return nil
}
