package bigquery

type CategoryRow struct {
	CategoryID string `bigquery:"category_id"`
	Name       string `bigquery:"name"`
	IconToken  string `bigquery:"icon_token"`
}
