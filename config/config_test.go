package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GIN_MODE", "RELEASE", "LOG_LEVEL", "DETECTOR", "MODEL_PATH", "MODEL_WORKERS",
		"INFERENCE_URL", "OUTPUT_FORMAT", "OUTPUT_QUALITY", "TELEGRAM_TOKEN", "SENTRY_DSN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.False(t, cfg.Release)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, DetectorGoCV, cfg.Detector)
	require.Equal(t, "./models/yolov8n.onnx", cfg.ModelPath)
	require.Equal(t, 2, cfg.ModelWorkers)
	require.Equal(t, "png", cfg.OutputFormat)
	require.Equal(t, 90, cfg.OutputQuality)
	require.Empty(t, cfg.TelegramToken)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("DETECTOR", "Remote")
	t.Setenv("INFERENCE_URL", "http://ml:5000/predict")
	t.Setenv("OUTPUT_FORMAT", "WEBP")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.True(t, cfg.Release)
	require.Equal(t, DetectorRemote, cfg.Detector)
	require.Equal(t, "webp", cfg.OutputFormat)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"PORT":           "abc",
		"RELEASE":        "maybe",
		"DETECTOR":       "tensorflow",
		"MODEL_WORKERS":  "0",
		"OUTPUT_FORMAT":  "gif",
		"OUTPUT_QUALITY": "101",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
