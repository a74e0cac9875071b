//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/ganderhq/gander/internal/app"
)

// InitializeApp builds the application with all its dependencies.
func InitializeApp(ctx context.Context) (*app.App, error) {
	wire.Build(AppSet)
	return &app.App{}, nil
}
