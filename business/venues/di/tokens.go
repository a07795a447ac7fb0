// Package di contains dependency injection tokens for the venues context.
package di

import (
	"github.com/fd1az/dex-scanner/business/venues/app"
	"github.com/fd1az/dex-scanner/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner  = di.NewToken[*app.Scanner]("venues.Scanner")
	Metadata = di.NewToken[app.MetadataSource]("venues.Metadata")
)

// Private dependency tokens - internal to the venues module
var (
	Adapters = di.NewToken[[]app.Adapter]("venues:adapters")
)

// Helper functions for type-safe access
func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetMetadata(c di.ServiceRegistry) app.MetadataSource {
	return di.GetToken(c, Metadata)
}

func GetAdapters(c di.ServiceRegistry) []app.Adapter {
	return di.GetToken(c, Adapters)
}
