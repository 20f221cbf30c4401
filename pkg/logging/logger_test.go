package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stablemark/stablemark/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	logging.SetDefault(logger)

	logging.Debug().Msg("debug message")
	logging.Info().Int64("policy_id", 1042).Msg("info message")
	logging.Warn().Msg("warning message")
	logging.Error().Msg("error message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if !strings.Contains(output, `"policy_id":1042`) {
		t.Errorf("Expected policy_id field in output, got: %s", output)
	}
}

func TestConfiguration(t *testing.T) {
	configs := []struct {
		name   string
		config *logging.Config
		check  func(t *testing.T, output string)
	}{
		{
			name: "debug level",
			config: &logging.Config{
				Level:  "debug",
				Format: "json",
			},
			check: func(t *testing.T, output string) {
				if !strings.Contains(output, `"level":"debug"`) {
					t.Errorf("Expected debug level in output")
				}
			},
		},
		{
			name: "error level only",
			config: &logging.Config{
				Level:  "error",
				Format: "json",
			},
			check: func(t *testing.T, output string) {
				if strings.Contains(output, `"level":"info"`) {
					t.Errorf("Should not contain info level when set to error")
				}
			},
		},
		{
			name: "default fields",
			config: &logging.Config{
				Level:  "info",
				Format: "json",
				Fields: map[string]any{"run_id": "abc123", "category": "quality"},
			},
			check: func(t *testing.T, output string) {
				if !strings.Contains(output, `"run_id":"abc123"`) {
					t.Errorf("Expected run_id field in output, got: %s", output)
				}
			},
		},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(tc.config)
			logger = logger.Output(buf)

			logger.Debug().Msg("debug")
			logger.Info().Msg("info")
			logger.Error().Msg("error")

			tc.check(t, buf.String())
		})
	}
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	tl.Logger.Info().Msg("message 1")
	tl.Logger.Error().Msg("message 2")

	if !tl.Contains("message 1") || !tl.Contains("message 2") {
		t.Errorf("Expected both messages in output, got: %s", tl.Output())
	}
	if tl.Count() != 2 {
		t.Errorf("Expected 2 log entries, got %d", tl.Count())
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNopLogger()
	logger.Info().Msg("discarded")
	logger.Error().Msg("also discarded")
}
