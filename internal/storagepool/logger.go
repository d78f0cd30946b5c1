// logger.go - service logger for the storage pool registry
package storagepool

import (
	"log/slog"

	"github.com/camsentry/camsentry/internal/logging"
)

var poolLogger *slog.Logger

// InitLogger sets up the storage pool service logger, falling back to the
// default slog logger if logging has not been initialized yet.
func InitLogger() {
	poolLogger = logging.ForService("storagepool")
	if poolLogger == nil {
		poolLogger = slog.Default().With("service", "storagepool")
	}
}
