package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codenook/internal/models"
	"codenook/internal/utils"

	"gorm.io/gorm"
)

// TaxonomyService manages the categories and tags posts are filed under.
type TaxonomyService struct {
	db *gorm.DB
}

func NewTaxonomyService(db *gorm.DB) *TaxonomyService {
	return &TaxonomyService{db: db}
}

func (s *TaxonomyService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	counts, err := s.postCounts(ctx, "post_categories", "category_id")
	if err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].Count = &models.Count{Posts: counts[categories[i].ID]}
	}
	return categories, nil
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, slug, err := s.prepareTerm(ctx, &models.Category{}, name, "category")
	if err != nil {
		return nil, err
	}
	category := models.Category{Name: name, Slug: slug}
	if err := s.insertTerm(ctx, &category, "category"); err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id string) error {
	return s.deleteTerm(ctx, &models.Category{}, id, "post_categories", "category_id", "category")
}

func (s *TaxonomyService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	counts, err := s.postCounts(ctx, "post_tags", "tag_id")
	if err != nil {
		return nil, err
	}
	for i := range tags {
		tags[i].Count = &models.Count{Posts: counts[tags[i].ID]}
	}
	return tags, nil
}

func (s *TaxonomyService) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name, slug, err := s.prepareTerm(ctx, &models.Tag{}, name, "tag")
	if err != nil {
		return nil, err
	}
	tag := models.Tag{Name: name, Slug: slug}
	if err := s.insertTerm(ctx, &tag, "tag"); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *TaxonomyService) DeleteTag(ctx context.Context, id string) error {
	return s.deleteTerm(ctx, &models.Tag{}, id, "post_tags", "tag_id", "tag")
}

func (s *TaxonomyService) prepareTerm(ctx context.Context, model any, name, kind string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", validationf("%s name is required", titleCase(kind))
	}
	slug := utils.Slugify(name)
	if slug == "" {
		return "", "", validationf("%s name must contain letters or digits", titleCase(kind))
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return "", "", fmt.Errorf("check %s slug: %w", kind, err)
	}
	if n > 0 {
		return "", "", conflictf("a %s with this name already exists", kind)
	}
	return name, slug, nil
}

func (s *TaxonomyService) insertTerm(ctx context.Context, value any, kind string) error {
	err := s.db.WithContext(ctx).Create(value).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflictf("a %s with this name already exists", kind)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	return nil
}

func (s *TaxonomyService) deleteTerm(ctx context.Context, model any, id, joinTable, column, kind string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return validationf("%s ID is required", titleCase(kind))
	}

	err := s.db.WithContext(ctx).Where("id = ?", id).First(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundf("%s not found", titleCase(kind))
	}
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", kind, id, err)
	}

	var attached int64
	if err := s.db.WithContext(ctx).Table(joinTable).Where(column+" = ?", id).Count(&attached).Error; err != nil {
		return fmt.Errorf("count posts of %s %s: %w", kind, id, err)
	}
	if attached > 0 {
		return conflictf("Cannot delete %s. It has %d associated post(s)", kind, attached)
	}

	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(model).Error; err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}

func (s *TaxonomyService) postCounts(ctx context.Context, joinTable, column string) (map[string]int64, error) {
	var rows []struct {
		TermID string
		Count  int64
	}
	err := s.db.WithContext(ctx).Table(joinTable).
		Select(column + " AS term_id, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count posts per %s: %w", column, err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.TermID] = r.Count
	}
	return counts, nil
}

// loadTerms fetches the categories or tags with the given ids, rejecting unknown ids.
func loadTerms[T models.Category | models.Tag](ctx context.Context, db *gorm.DB, ids []string, kind string) ([]T, error) {
	seen := make(map[string]bool, len(ids))
	var unique []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, nil
	}

	var terms []T
	if err := db.WithContext(ctx).Where("id IN ?", unique).Find(&terms).Error; err != nil {
		return nil, fmt.Errorf("fetch %s ids: %w", kind, err)
	}
	if len(terms) != len(unique) {
		return nil, validationf("unknown %s id", kind)
	}
	return terms, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
