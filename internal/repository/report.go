package repository

import (
	"context"
	"errors"

	"civireport/internal/model"
)

// ErrMissingRequiredFields reports a create attempt without type or
// coordinates. The check is defensive and independent of the capture
// pipeline's validation gate, since Create may be called directly by other
// collaborators.
var ErrMissingRequiredFields = errors.New("type, latitude and longitude are required")

// ReportRepository defines data access for reports using SQL queries only.
// No business logic here, strictly persistence operations. The capture core
// never updates or deletes reports; later status changes belong to the
// agent/admin workflows.
type ReportRepository interface {
	// Create inserts a new report row. Status, priority, id and created_at
	// are defaulted by the persistence layer; the returned report carries
	// the stored values.
	Create(ctx context.Context, in model.ReportInput) (*model.Report, error)

	// FindByID returns a report by its ID.
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// List returns a paginated list of reports and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Report], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
