// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

package errutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func TestLogError_OopsError(t *testing.T) {
	logger, buf := captureLogger()

	err := oops.Code("SOMETHING_FAILED").
		With("user_id", "abc").
		Errorf("something broke")
	LogError(logger, "operation failed", err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "operation failed", record["msg"])
	assert.Equal(t, "something broke", record["error"])
	assert.Equal(t, "SOMETHING_FAILED", record["code"])

	ctx, ok := record["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc", ctx["user_id"])
}

func TestLogError_PlainError(t *testing.T) {
	logger, buf := captureLogger()

	LogError(logger, "operation failed", errors.New("plain failure"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "plain failure", record["error"])
	assert.NotContains(t, record, "code")
}
