package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithOutput("warn", "json", &buf)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("dropped")
	logger.WithField("sale_id", 7).Warn("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.EqualValues(t, 7, entry["sale_id"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := newWithOutput("chatty", "text", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestLogError_AttachesModuleAndOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithOutput("info", "json", &buf)

	LogError(logger, "sales", "CreateSale", map[string]int{"items": 2}, errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "sales", entry["module"])
	assert.Equal(t, "CreateSale", entry["operation"])
	assert.NotNil(t, entry["data"])
}
