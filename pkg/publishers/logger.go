package publishers

import "github.com/Adda-Baaj/vpic-harvester/internal/logger"

// Logger is the structured logging surface publishers report delivery through.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}
