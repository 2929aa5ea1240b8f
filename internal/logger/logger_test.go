package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	require.Equal(t, logrus.DebugLevel, New("debug").GetLevel())
	require.Equal(t, logrus.WarnLevel, New("WARN").GetLevel())
	require.Equal(t, logrus.InfoLevel, New("chatty").GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, New("info").Formatter)
}
