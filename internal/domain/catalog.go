package domain

import "context"

type CatalogGame struct {
	Name     string `json:"name"`
	Genre    string `json:"genre"`
	Platform string `json:"platform"`
}

type CatalogFilter struct {
	Genre    string
	Platform string
	Search   string
	Limit    int
}

type CatalogRepository interface {
	FindByName(ctx context.Context, name string) (*CatalogGame, error)
	List(ctx context.Context, filter CatalogFilter) ([]CatalogGame, error)
}
