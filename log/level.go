package log

import (
	"io"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level = logrus.Level

const (
	PanicLevel = logrus.PanicLevel
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

func setStdLevel(lvl Level) {
	logrus.SetLevel(lvl)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}
