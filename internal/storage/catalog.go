package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// GetCategories returns all catalog categories.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, slug, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer closeRows(rows)

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// GetCategoryBySlug looks up one category. A miss returns a NotFoundError
// listing the available slugs.
func (s *SQLiteStorage) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return nil, err
	}

	var c model.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, name FROM categories WHERE slug = ?", slug).
		Scan(&c.ID, &c.Slug, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		categories, listErr := s.GetCategories(ctx)
		if listErr != nil {
			return nil, listErr
		}
		slugs := make([]string, 0, len(categories))
		for _, cat := range categories {
			slugs = append(slugs, cat.Slug)
		}
		return nil, common.NewNotFoundError("category", slug, slugs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}

// CreateCategory inserts a category and backfills its id.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (slug, name) VALUES (?, ?)",
		category.Slug, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %s", common.ErrDuplicateEntry, category.Slug)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category id: %w", err)
	}
	category.ID = id

	return nil
}

// LoadCatalog loads one category's full snapshot: elements, tiers,
// inclusions, and warnings. The snapshot is validated and indexed before it
// is returned.
func (s *SQLiteStorage) LoadCatalog(ctx context.Context, categorySlug string) (*model.Catalog, error) {
	category, err := s.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}

	elements, err := s.loadElements(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	tiers, tierIDs, err := s.loadTiers(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	inclusions, err := s.loadInclusions(ctx, tierIDs)
	if err != nil {
		return nil, err
	}

	warnings, err := s.loadWarnings(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	catalog, err := model.NewCatalog(*category, elements, tiers, inclusions, warnings)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog snapshot: %w", err)
	}

	return catalog, nil
}

func (s *SQLiteStorage) loadElements(ctx context.Context, categoryID int64) ([]model.Element, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, code, name, parent_element_id, variant_code,
		       question_hint, keywords, aliases, multi_select_keywords,
		       fields, required_images
		FROM elements WHERE category_id = ? ORDER BY id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer closeRows(rows)

	var elements []model.Element
	for rows.Next() {
		var e model.Element
		var variantCode, questionHint sql.NullString
		var keywords, aliases, multiSelect, fields, images string

		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Code, &e.Name,
			&e.ParentElementID, &variantCode, &questionHint,
			&keywords, &aliases, &multiSelect, &fields, &images); err != nil {
			return nil, fmt.Errorf("failed to scan element: %w", err)
		}

		e.VariantCode = variantCode.String
		e.QuestionHint = questionHint.String

		if err := unmarshalColumn(keywords, &e.Keywords, "element keywords"); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(aliases, &e.Aliases, "element aliases"); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(multiSelect, &e.MultiSelectKeywords, "element multi_select_keywords"); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(fields, &e.Fields, "element fields"); err != nil {
			return nil, err
		}
		if err := unmarshalColumn(images, &e.RequiredImages, "element required_images"); err != nil {
			return nil, err
		}

		elements = append(elements, e)
	}

	return elements, rows.Err()
}

func (s *SQLiteStorage) loadTiers(ctx context.Context, categoryID int64) ([]model.TariffTier, []int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, code, name, price, min_elements, max_elements,
		       sort_order, classification_rules
		FROM tariff_tiers WHERE category_id = ? ORDER BY sort_order, id`, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query tiers: %w", err)
	}
	defer closeRows(rows)

	var tiers []model.TariffTier
	var tierIDs []int64
	for rows.Next() {
		var t model.TariffTier
		var price, rules string

		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Code, &t.Name, &price,
			&t.MinElements, &t.MaxElements, &t.SortOrder, &rules); err != nil {
			return nil, nil, fmt.Errorf("failed to scan tier: %w", err)
		}

		t.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, nil, fmt.Errorf("tier %s has invalid price %q: %w", t.Code, price, err)
		}
		if err := unmarshalColumn(rules, &t.Rules, "tier classification_rules"); err != nil {
			return nil, nil, err
		}

		tiers = append(tiers, t)
		tierIDs = append(tierIDs, t.ID)
	}

	return tiers, tierIDs, rows.Err()
}

func (s *SQLiteStorage) loadInclusions(ctx context.Context, tierIDs []int64) ([]model.TierInclusion, error) {
	if len(tierIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]byte, 0, len(tierIDs)*2)
	args := make([]any, 0, len(tierIDs))
	for i, id := range tierIDs {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args = append(args, id)
	}

	//nolint:gosec // only '?' placeholders are interpolated
	query := fmt.Sprintf(`
		SELECT id, tier_id, element_id, included_tier_id, min_qty, max_qty, notes
		FROM tier_inclusions WHERE tier_id IN (%s) ORDER BY id`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inclusions: %w", err)
	}
	defer closeRows(rows)

	var inclusions []model.TierInclusion
	for rows.Next() {
		var inc model.TierInclusion
		var notes sql.NullString

		if err := rows.Scan(&inc.ID, &inc.TierID, &inc.ElementID,
			&inc.IncludedTierID, &inc.MinQty, &inc.MaxQty, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan inclusion: %w", err)
		}

		inc.Notes = notes.String
		inclusions = append(inclusions, inc)
	}

	return inclusions, rows.Err()
}

func (s *SQLiteStorage) loadWarnings(ctx context.Context, categoryID int64) ([]model.Warning, error) {
	// Warnings scoped to the category, its tiers, its elements, plus globals.
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.code, w.message, w.severity, w.category_id, w.tier_id,
		       w.element_id, w.trigger_conditions
		FROM warnings w
		WHERE w.category_id = ?
		   OR w.tier_id IN (SELECT id FROM tariff_tiers WHERE category_id = ?)
		   OR w.element_id IN (SELECT id FROM elements WHERE category_id = ?)
		   OR (w.category_id IS NULL AND w.tier_id IS NULL AND w.element_id IS NULL)
		ORDER BY w.id`, categoryID, categoryID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warnings: %w", err)
	}
	defer closeRows(rows)

	var warnings []model.Warning
	for rows.Next() {
		var w model.Warning
		var trigger string

		if err := rows.Scan(&w.ID, &w.Code, &w.Message, &w.Severity,
			&w.CategoryID, &w.TierID, &w.ElementID, &trigger); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}

		if err := unmarshalColumn(trigger, &w.Trigger, "warning trigger_conditions"); err != nil {
			return nil, err
		}

		warnings = append(warnings, w)
	}

	return warnings, rows.Err()
}

// SaveElement inserts or updates an element by (category, code).
func (s *SQLiteStorage) SaveElement(ctx context.Context, element *model.Element) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if element == nil {
		return fmt.Errorf("%w: element", ErrNilParameter)
	}
	if err := element.Validate(); err != nil {
		return err
	}

	keywords, err := marshalColumn(element.Keywords)
	if err != nil {
		return err
	}
	aliases, err := marshalColumn(element.Aliases)
	if err != nil {
		return err
	}
	multiSelect, err := marshalColumn(element.MultiSelectKeywords)
	if err != nil {
		return err
	}
	fields, err := marshalColumn(element.Fields)
	if err != nil {
		return err
	}
	images, err := marshalColumn(element.RequiredImages)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO elements (category_id, code, name, parent_element_id,
			variant_code, question_hint, keywords, aliases,
			multi_select_keywords, fields, required_images)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category_id, code) DO UPDATE SET
			name = excluded.name,
			parent_element_id = excluded.parent_element_id,
			variant_code = excluded.variant_code,
			question_hint = excluded.question_hint,
			keywords = excluded.keywords,
			aliases = excluded.aliases,
			multi_select_keywords = excluded.multi_select_keywords,
			fields = excluded.fields,
			required_images = excluded.required_images`,
		element.CategoryID, element.Code, element.Name, element.ParentElementID,
		element.VariantCode, element.QuestionHint, keywords, aliases,
		multiSelect, fields, images)
	if err != nil {
		return fmt.Errorf("failed to save element %s: %w", element.Code, err)
	}

	if element.ID == 0 {
		if id, idErr := result.LastInsertId(); idErr == nil {
			element.ID = id
		}
	}

	return nil
}

// SaveTier inserts or updates a tier by (category, code).
func (s *SQLiteStorage) SaveTier(ctx context.Context, tier *model.TariffTier) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if tier == nil {
		return fmt.Errorf("%w: tier", ErrNilParameter)
	}
	if err := tier.Validate(); err != nil {
		return err
	}

	rules, err := marshalColumn(tier.Rules)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tariff_tiers (category_id, code, name, price, min_elements,
			max_elements, sort_order, classification_rules)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category_id, code) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			min_elements = excluded.min_elements,
			max_elements = excluded.max_elements,
			sort_order = excluded.sort_order,
			classification_rules = excluded.classification_rules`,
		tier.CategoryID, tier.Code, tier.Name, tier.Price.String(),
		tier.MinElements, tier.MaxElements, tier.SortOrder, rules)
	if err != nil {
		return fmt.Errorf("failed to save tier %s: %w", tier.Code, err)
	}

	if tier.ID == 0 {
		if id, idErr := result.LastInsertId(); idErr == nil {
			tier.ID = id
		}
	}

	return nil
}

// DeleteInclusionsByCategory removes every inclusion edge whose owning tier
// belongs to the category. Importers call it before reinserting edges so a
// re-import does not duplicate them.
func (s *SQLiteStorage) DeleteInclusionsByCategory(ctx context.Context, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM tier_inclusions
		WHERE tier_id IN (SELECT id FROM tariff_tiers WHERE category_id = ?)`,
		categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete inclusions: %w", err)
	}

	return nil
}

// DeleteWarningsByCategory removes every warning scoped to the category,
// one of its tiers, or one of its elements.
func (s *SQLiteStorage) DeleteWarningsByCategory(ctx context.Context, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM warnings
		WHERE category_id = ?
		   OR tier_id IN (SELECT id FROM tariff_tiers WHERE category_id = ?)
		   OR element_id IN (SELECT id FROM elements WHERE category_id = ?)`,
		categoryID, categoryID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete warnings: %w", err)
	}

	return nil
}

// SaveInclusion inserts an inclusion edge.
func (s *SQLiteStorage) SaveInclusion(ctx context.Context, inclusion *model.TierInclusion) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if inclusion == nil {
		return fmt.Errorf("%w: inclusion", ErrNilParameter)
	}
	if err := inclusion.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tier_inclusions (tier_id, element_id, included_tier_id,
			min_qty, max_qty, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inclusion.TierID, inclusion.ElementID, inclusion.IncludedTierID,
		inclusion.MinQty, inclusion.MaxQty, inclusion.Notes)
	if err != nil {
		return fmt.Errorf("failed to save inclusion: %w", err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		inclusion.ID = id
	}

	return nil
}

// SaveWarning inserts a warning.
func (s *SQLiteStorage) SaveWarning(ctx context.Context, warning *model.Warning) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if warning == nil {
		return fmt.Errorf("%w: warning", ErrNilParameter)
	}
	if err := warning.Validate(); err != nil {
		return err
	}

	trigger, err := marshalColumn(warning.Trigger)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO warnings (code, message, severity, category_id, tier_id,
			element_id, trigger_conditions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		warning.Code, warning.Message, warning.Severity,
		warning.CategoryID, warning.TierID, warning.ElementID, trigger)
	if err != nil {
		return fmt.Errorf("failed to save warning %s: %w", warning.Code, err)
	}

	if id, idErr := result.LastInsertId(); idErr == nil {
		warning.ID = id
	}

	return nil
}

func marshalColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal column: %w", err)
	}
	return string(data), nil
}

func unmarshalColumn(data string, target any, what string) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return fmt.Errorf("%w: cannot unmarshal %s: %v", common.ErrDatabaseCorrupted, what, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
