package coupon

import (
	"database/sql"

	"go.uber.org/zap"

	"pronto/internal/catalog"
	"pronto/internal/coupon/repository"
)

func NewModule(db *sql.DB, products catalog.Repository, logger *zap.Logger) (Repository, *Controller) {
	repo := repository.NewMySQLCouponRepository(db)
	validator := NewValidator(repo, products, logger)
	return repo, NewController(repo, validator, logger)
}
