package biometric

import (
	"os"
	"strconv"

	"veriface.io/infrastructure/logger"
)

// FaceService is the shared pipeline instance. The cascade inside it is
// loaded once here and treated as read-only for the life of the process.
var FaceService *FaceAuthService

const (
	defaultMatchThreshold = 0.40
	defaultMatchMargin    = 0.05
)

// InitialiseBiometricService loads the cascade document from CASCADE_PATH and
// constructs the global face service. This is the only file-system access the
// pipeline ever performs.
func InitialiseBiometricService() {
	cascadePath := os.Getenv("CASCADE_PATH")
	if cascadePath == "" {
		cascadePath = "./models/frontalface.json"
	}
	raw, err := os.ReadFile(cascadePath)
	if err != nil {
		logger.Error("failed to read cascade document", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "path",
			Data: cascadePath,
		})
		return
	}
	cascade, err := LoadCascade(raw, DefaultLoaderOptions)
	if err != nil {
		logger.Error("failed to parse cascade document", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return
	}

	FaceService = NewFaceAuthService(cascade, envFloat("FACE_MATCH_THRESHOLD", defaultMatchThreshold), envFloat("FACE_MATCH_MARGIN", defaultMatchMargin))
	logger.Info("biometric service initialised", logger.LoggerOptions{
		Key: "cascade",
		Data: map[string]any{
			"window_width":  cascade.WindowWidth,
			"window_height": cascade.WindowHeight,
			"stages":        len(cascade.Stages),
		},
	})
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logger.Warning("invalid float env value, using default", logger.LoggerOptions{
			Key:  "name",
			Data: name,
		})
		return fallback
	}
	return value
}
