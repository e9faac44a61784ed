package gpu

import (
	"log/slog"

	"github.com/gogpu/framecap"
)

// slogger returns the shared framecap logger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger { return framecap.Logger() }
