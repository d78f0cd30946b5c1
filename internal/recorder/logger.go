// logger.go - service logger for the segment recorder
package recorder

import (
	"log/slog"

	"github.com/camsentry/camsentry/internal/logging"
)

var recorderLogger *slog.Logger

// InitLogger sets up the recorder service logger, falling back to the default
// slog logger if logging has not been initialized yet.
func InitLogger() {
	recorderLogger = logging.ForService("recorder")
	if recorderLogger == nil {
		recorderLogger = slog.Default().With("service", "recorder")
	}
}
