package cmd

import (
	"log/slog"

	"github.com/nodeflow/nodeflow/pkg/nodes/conditional"
	"github.com/nodeflow/nodeflow/pkg/nodes/end"
	"github.com/nodeflow/nodeflow/pkg/nodes/generic"
	"github.com/nodeflow/nodeflow/pkg/nodes/httprequest"
	"github.com/nodeflow/nodeflow/pkg/nodes/start"
	"github.com/nodeflow/nodeflow/pkg/nodes/transform"
	"github.com/nodeflow/nodeflow/pkg/registry"
)

// NewRegistry creates a registry with all native node handlers registered and
// the generic passthrough as the fallback for unknown node types.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterHandler(start.NewHandler())
	reg.RegisterHandler(end.NewHandler())
	reg.RegisterHandler(httprequest.NewHandler())
	reg.RegisterHandler(transform.NewHandler())
	reg.RegisterHandler(conditional.NewHandler())
	reg.RegisterFallback(generic.NewHandler())

	return reg
}
