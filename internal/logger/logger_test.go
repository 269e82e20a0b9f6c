package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bobiz-backend/internal/logger"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWithWriter(&buf, "info", "json")
	t.Cleanup(func() { logger.Initialize("info", "text") })

	logger.ForExchange(7).Info("Exchange completed", "points", 30)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Exchange completed", line["msg"])
	assert.Equal(t, float64(7), line["exchange_id"])
	assert.Equal(t, float64(30), line["points"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWithWriter(&buf, "warn", "text")
	t.Cleanup(func() { logger.Initialize("info", "text") })

	logger.EnterMethod("svc.Do")
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.ExitMethodRejected("svc.Do", errors.New("need fully allocated"), "needID", 4)
	assert.Contains(t, buf.String(), "rejection=\"need fully allocated\"")
	assert.Contains(t, buf.String(), "needID=4")
}
