package logging

import (
	"github.com/sirupsen/logrus"
)

func LogError(logger *logrus.Logger, msg string, err error) {
	logger.Errorf("%s: %v", msg, err)
}

func LogFatal(logger *logrus.Logger, msg string, err error) {
	logger.Fatalf("%s: %v", msg, err)
}

func LogWarn(logger *logrus.Logger, msg string, err error) {
	logger.Warnf("%s: %v", msg, err)
}

func LogInfo(logger *logrus.Logger, msg string) {
	logger.Info(msg)
}

// LogRun emits one structured line summarising a pipeline run.
func LogRun(logger *logrus.Logger, fields map[string]interface{}) {
	logger.WithFields(logrus.Fields(fields)).Info("pipeline run finished")
}
