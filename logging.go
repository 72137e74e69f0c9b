package agentauth

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the engine's structured logger. The logger itself carries
// no fields; entry adds the "component":"agentauth" field so log lines are
// greppable across a larger service that embeds the engine.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// entry returns a logger scoped to the engine's component field, the
// starting point every call site adds its own fields (challenge_id, driver,
// reason, zone, model_family) onto.
func entry(logger *logrus.Logger) *logrus.Entry {
	return logger.WithField("component", "agentauth")
}
