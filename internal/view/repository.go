package view

import "context"

type Repository interface {
	Create(ctx context.Context, v *View) error
	Get(ctx context.Context, id string) (*View, error)
	List(ctx context.Context, limit, offset int) ([]*View, int, error)
	Update(ctx context.Context, v *View) error
	Delete(ctx context.Context, id string) error
}
