package catalog

import (
	"database/sql"

	"go.uber.org/zap"

	"pronto/internal/catalog/repository"
)

func NewModule(db *sql.DB, logger *zap.Logger) (Repository, *Controller) {
	repo := repository.NewMySQLProductRepository(db)
	return repo, NewController(repo, logger)
}
