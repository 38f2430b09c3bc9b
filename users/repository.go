package users

import "context"

// Repository is the single data access point for consumers. It returns the
// records of its DataSource unchanged.
type Repository struct {
	source DataSource
}

// NewRepository creates a Repository over source.
func NewRepository(source DataSource) *Repository {
	return &Repository{source: source}
}

// GetRecords fetches all users.
func (r *Repository) GetRecords(ctx context.Context) ([]User, error) {
	return r.source.FetchAll(ctx)
}
