package repository

import (
	"errors"
	"strings"

	"boneage-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAnalysisNotFound is returned when no analysis matches the id within
// the requesting hospital
var ErrAnalysisNotFound = errors.New("analysis not found")

// sortColumns is the allow-list for list ordering. Anything not in this
// map falls back to creation time descending, so a sort field can never
// reach the query verbatim.
var sortColumns = map[string]string{
	"patient_code": "patients.patient_code",
	"patient_name": "patients.name",
	"created_at":   "analyses.created_at",
}

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts a new analysis row
func (r *AnalysisRepository) Create(analysis *models.Analysis) error {
	return r.db.Create(analysis).Error
}

// MarkFailed flags an analysis as failed. The row is kept as a permanent
// failure marker.
func (r *AnalysisRepository) MarkFailed(id uint) error {
	return r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Update("status", models.AnalysisStatusFailed).Error
}

// CompleteTx persists the parsed bone age and raw result payload and
// marks the analysis completed, inside the caller's transaction
func (r *AnalysisRepository) CompleteTx(tx *gorm.DB, id uint, boneAgeYears, boneAgeMonths *int, result datatypes.JSON) error {
	return tx.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"bone_age_years":  boneAgeYears,
			"bone_age_months": boneAgeMonths,
			"result_json":     result,
			"status":          models.AnalysisStatusCompleted,
		}).Error
}

// Transaction runs fn inside a database transaction
func (r *AnalysisRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// ListParams carries pagination, search and ordering for List
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortField string
	SortOrder string
}

// List returns one page of the hospital's analyses joined with patient
// info, plus the total row count under the same filter
func (r *AnalysisRepository) List(hospitalID uint, params ListParams) ([]models.AnalysisListItem, int64, error) {
	base := r.db.Model(&models.Analysis{}).
		Joins("JOIN patients ON patients.id = analyses.patient_id").
		Where("analyses.hospital_id = ?", hospitalID)

	if params.Search != "" {
		pattern := "%" + strings.ToLower(params.Search) + "%"
		base = base.Where("LOWER(patients.name) LIKE ? OR LOWER(patients.patient_code) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AnalysisListItem
	err := base.Session(&gorm.Session{}).
		Select(`analyses.id, analyses.status, analyses.bone_age_years, analyses.bone_age_months,
			analyses.chronological_age_years, analyses.chronological_age_months, analyses.created_at,
			patients.name AS patient_name, patients.patient_code AS patient_code`).
		Order(orderClause(params.SortField, params.SortOrder)).
		Limit(params.Limit).
		Offset((params.Page - 1) * params.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetByID retrieves one analysis with its patient, scoped to the hospital
func (r *AnalysisRepository) GetByID(hospitalID, id uint) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.Preload("Patient").
		Where("id = ? AND hospital_id = ?", id, hospitalID).
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return &analysis, nil
}

func orderClause(sortField, sortOrder string) string {
	column, ok := sortColumns[sortField]
	direction := "DESC"
	if !ok {
		// Unrecognized fields fall back to newest first
		column = "analyses.created_at"
	} else if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}

	// Secondary keys stabilize ordering across ties
	return column + " " + direction + ", patients.name ASC, patients.birth_date ASC, analyses.created_at DESC"
}
