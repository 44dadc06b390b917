package postgres

import (
	"github.com/upb/authgate/config"
	"github.com/upb/authgate/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages the postgres repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the database and creates a factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, logger: logger}, nil
}

// Users returns the postgres user repository
func (f *RepositoryFactory) Users() repositories.UserRepository {
	return NewUserRepository(f.db, f.logger)
}

// Revocations returns the postgres revocation repository
func (f *RepositoryFactory) Revocations() repositories.RevocationRepository {
	return NewRevocationRepository(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
