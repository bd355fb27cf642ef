package domain

// CategoryRef is an entry of the static category vocabulary.
type CategoryRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IconToken   string `json:"icon_token"`
}

// Category is a category from the caller's registry.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
