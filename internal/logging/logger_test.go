package logging

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		format     string
		output     string
		wantLevel  logrus.Level
		wantJSON   bool
		wantOutput *os.File
	}{
		{"json defaults", "info", "json", "stdout", logrus.InfoLevel, true, os.Stdout},
		{"text debug to stderr", "debug", "text", "stderr", logrus.DebugLevel, false, os.Stderr},
		{"unknown level falls back", "chatty", "", "", logrus.InfoLevel, true, os.Stdout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format, tt.output)

			assert.Equal(t, tt.wantLevel, logger.GetLevel())
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
			assert.Equal(t, tt.wantOutput, logger.Out)
		})
	}
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+15551234567", "********4567"},
		{"4567", "****"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPhone(tt.in))
	}
}
