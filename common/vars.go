package common

var (
	// Version is set at build time via -ldflags.
	Version = "dev"

	// PackageName is the metrics namespace and default log service tag.
	PackageName = "balancer_helper_registry"
)
