package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByKey(ctx context.Context, key string) (*FeeSchedule, error)
	FindByID(ctx context.Context, id snowflake.ID) (*FeeSchedule, error)
	List(ctx context.Context, filter ListRequest) ([]FeeSchedule, error)
	Create(ctx context.Context, fee *FeeSchedule) error
	Update(ctx context.Context, fee *FeeSchedule) error
}
