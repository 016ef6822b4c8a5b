package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/hilthontt/spinwheel/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCatalogPage = 200

// CatalogRepository serves the known games used to fill in submitted entries.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindByName(ctx context.Context, name string) (*domain.CatalogGame, error) {
	var record catalogRecord
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGameNotFound
		}
		return nil, err
	}
	game := record.toDomain()
	return &game, nil
}

func (r *CatalogRepository) List(ctx context.Context, filter domain.CatalogFilter) ([]domain.CatalogGame, error) {
	query := r.db.WithContext(ctx).Model(&catalogRecord{})
	if filter.Genre != "" {
		query = query.Where("LOWER(genre) = LOWER(?)", filter.Genre)
	}
	if filter.Platform != "" {
		query = query.Where("LOWER(platform) = LOWER(?)", filter.Platform)
	}
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+escapeLike(filter.Search)+"%")
	}

	limit := filter.Limit
	if limit <= 0 || limit > maxCatalogPage {
		limit = maxCatalogPage
	}

	var records []catalogRecord
	if err := query.Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	games := make([]domain.CatalogGame, 0, len(records))
	for _, rec := range records {
		games = append(games, rec.toDomain())
	}
	return games, nil
}

// Seed inserts games that are not in the catalog yet.
func (r *CatalogRepository) Seed(ctx context.Context, games []domain.CatalogGame) error {
	if len(games) == 0 {
		return nil
	}

	records := make([]catalogRecord, 0, len(games))
	for _, g := range games {
		records = append(records, catalogRecord{Name: g.Name, Genre: g.Genre, Platform: g.Platform})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&records).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r catalogRecord) toDomain() domain.CatalogGame {
	return domain.CatalogGame{Name: r.Name, Genre: r.Genre, Platform: r.Platform}
}
