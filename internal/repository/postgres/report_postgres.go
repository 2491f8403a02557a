package postgres

import (
	"context"
	"database/sql"

	"civireport/internal/model"
	"civireport/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

const reportColumns = `id, type, description, status, priority, audio_url, image_url,
		latitude, longitude, commune_id, citizen_name, phone, submitter_user_id, created_at`

// Create inserts a new report row and returns the stored record including
// the server-generated id, status, priority and created_at.
func (r *ReportPostgres) Create(ctx context.Context, in model.ReportInput) (*model.Report, error) {
	if in.Type == "" || in.Latitude == nil || in.Longitude == nil {
		return nil, repository.ErrMissingRequiredFields
	}

	const q = `
		INSERT INTO reports (type, description, audio_url, image_url, latitude, longitude,
			commune_id, citizen_name, phone, submitter_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + reportColumns

	row := r.db.QueryRowContext(ctx, q,
		in.Type,
		in.Description,
		in.AudioURL,
		in.ImageURL,
		*in.Latitude,
		*in.Longitude,
		in.CommuneID,
		in.CitizenName,
		in.Phone,
		in.SubmitterUserID,
	)
	return scanReport(row)
}

// FindByID fetches a single report by its ID.
func (r *ReportPostgres) FindByID(ctx context.Context, id string) (*model.Report, error) {
	const q = `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

// List returns reports using LIMIT/OFFSET pagination and a total count.
func (r *ReportPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Report], error) {
	const qCount = `SELECT COUNT(*) FROM reports`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + reportColumns + `
		FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Report, 0)
	for rows.Next() {
		rep, err := scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Report]{
		Items: items,
		Total: total,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row *sql.Row) (*model.Report, error) {
	return scanReportRow(row)
}

func scanReportRow(row rowScanner) (*model.Report, error) {
	var rep model.Report
	if err := row.Scan(
		&rep.ID,
		&rep.Type,
		&rep.Description,
		&rep.Status,
		&rep.Priority,
		&rep.AudioURL,
		&rep.ImageURL,
		&rep.Latitude,
		&rep.Longitude,
		&rep.CommuneID,
		&rep.CitizenName,
		&rep.Phone,
		&rep.SubmitterUserID,
		&rep.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rep, nil
}
