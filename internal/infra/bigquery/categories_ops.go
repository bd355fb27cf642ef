package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/smsledger/internal/domain"
)

// ListCategories retrieves the category registry ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT category_id, name, IFNULL(icon_token, "") AS icon_token
		FROM %s
		ORDER BY name, category_id
	`, r.fq(categoriesTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var out []domain.Category
	for {
		var row CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		out = append(out, domain.Category{ID: row.CategoryID, Name: row.Name})
	}
	return out, nil
}

// SeedCategories inserts categories whose id is not yet present.
func (r *Repository) SeedCategories(ctx context.Context, refs []domain.CategoryRef) error {
	for _, c := range refs {
		err := r.runDML(ctx, fmt.Sprintf(`
			MERGE %s T
			USING (SELECT @id AS category_id) S
			ON T.category_id = S.category_id
			WHEN NOT MATCHED THEN INSERT (category_id, name, icon_token)
			VALUES (@id, @name, @icon)
		`, r.fq(categoriesTable)), []bigquery.QueryParameter{
			{Name: "id", Value: c.ID},
			{Name: "name", Value: c.DisplayName},
			{Name: "icon", Value: c.IconToken},
		})
		if err != nil {
			return fmt.Errorf("SeedCategories: %s: %w", c.ID, err)
		}
	}
	return nil
}
