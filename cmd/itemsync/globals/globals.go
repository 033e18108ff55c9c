package globals

import (
	"context"

	"bazaar-items/internal/config"
)

type key struct{}

// Value is the state shared by every itemsync command, set up by the root
// command before any subcommand runs.
type Value struct {
	Config config.Config
	Debug  bool
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key{}, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key{}).(*Value)
}
