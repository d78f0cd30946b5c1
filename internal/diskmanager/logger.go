// logger.go - service logger for the disk manager
package diskmanager

import (
	"log/slog"

	"github.com/camsentry/camsentry/internal/logging"
)

var diskLogger *slog.Logger

// InitLogger sets up the disk manager service logger, falling back to the
// default slog logger if logging has not been initialized yet.
func InitLogger() {
	diskLogger = logging.ForService("diskmanager")
	if diskLogger == nil {
		diskLogger = slog.Default().With("service", "diskmanager")
	}
}
