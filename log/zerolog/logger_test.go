package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	loglib "github.com/nao1215/sheetquery/log"
)

func TestLogger_Warn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	logger := NewLogger(&zl).WithFields(loglib.Fields{loglib.ModuleField: "materializer"})

	logger.Warn(errors.New("boom"), "column missing", loglib.Fields{
		loglib.WorksheetField: "ColumnMappings",
		"rows":                3,
		"strict":              false,
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "column missing", entry["message"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "ColumnMappings", entry["worksheet"])
	assert.Equal(t, "materializer", entry["module"])
	assert.InDelta(t, 3, entry["rows"], 0)
	assert.Equal(t, false, entry["strict"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.InfoLevel)
	logger := NewLogger(&zl)

	logger.Debug("hidden")
	logger.Trace("hidden")
	assert.Zero(t, buf.Len())

	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewConsoleLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn(nil, "visible", loglib.Fields{loglib.ColumnField: "CEO"})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "CEO")

	buf.Reset()
	NewConsoleLogger(&buf, "bogus").Info("default level is info")
	assert.Contains(t, buf.String(), "default level is info")
}

func TestLogger_DefaultModule(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	NewLogger(&zl).Info("opened", loglib.Fields{
		loglib.FileField: "companies.xlsx",
		"cause":          errors.New("locked"),
		"type":           reflect.TypeFor[int8](),
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sheetquery", entry["module"])
	assert.Equal(t, "companies.xlsx", entry["file"])
	assert.Equal(t, "locked", entry["cause"])
	assert.Equal(t, "int8", entry["type"])

	buf.Reset()
	NewLogger(&zl).Info("overridden", loglib.Fields{loglib.ModuleField: "relation"})
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "relation", entry["module"])
}

func TestLogger_NilSafe(t *testing.T) {
	t.Parallel()

	var typedNil *Logger
	tests := []struct {
		name   string
		logger loglib.Logger
	}{
		{name: "nil zerolog logger", logger: NewLogger(nil)},
		{name: "typed nil adapter", logger: loglib.NewLogger(typedNil)},
		{name: "fields on typed nil adapter", logger: typedNil.WithFields(loglib.Fields{loglib.ColumnField: "CEO"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.NotPanics(t, func() {
				tt.logger.Trace("trace")
				tt.logger.Debug("debug")
				tt.logger.Info("info", loglib.Fields{loglib.WorksheetField: "People"})
				tt.logger.Warn(errors.New("boom"), "warn")
				tt.logger.Error(errors.New("boom"), "error")
				tt.logger.WithFields(loglib.Fields{"a": 1}).Info("child")
			})
		})
	}
}
