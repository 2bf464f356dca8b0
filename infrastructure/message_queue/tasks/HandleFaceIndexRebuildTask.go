package queue_tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"veriface.io/application/repository"
	"veriface.io/infrastructure/biometric"
	"veriface.io/infrastructure/biometric/types"
	"veriface.io/infrastructure/logger"
	mq_types "veriface.io/infrastructure/message_queue/types"
)

var HandleFaceIndexRebuildTaskName mq_types.Queues = "rebuild_face_index"

type FaceIndexRebuildPayload struct {
	Reason string
}

// HandleFaceIndexRebuildTask reloads every stored face template and swaps
// the in-memory match index in one atomic step. Searches keep running
// against the old snapshot until the swap lands.
func HandleFaceIndexRebuildTask(ctx context.Context, t *asynq.Task) error {
	var payload FaceIndexRebuildPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logger.Error("an error occured while unmarshalling face index rebuild payload", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return err
	}
	return RebuildFaceIndex(payload.Reason)
}

// RebuildFaceIndex is shared between the queue handler and boot, which
// performs an initial synchronous load before the server accepts traffic.
func RebuildFaceIndex(reason string) error {
	templates, err := repository.FaceTemplateRepo().FindMany(map[string]interface{}{
		"deletedAt": nil,
	})
	if err != nil {
		logger.Error("could not load face templates for index rebuild", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return err
	}

	entries := make([]types.IndexEntry, 0, len(*templates))
	for _, template := range *templates {
		variants := make([]types.Embedding, 0, len(template.Samples)+2)
		variants = append(variants, template.Mean, template.Median)
		for _, sample := range template.Samples {
			variants = append(variants, sample)
		}
		entries = append(entries, types.IndexEntry{
			IdentityID: template.UserID,
			Variants:   variants,
		})
	}

	if err := biometric.FaceService.Index.Rebuild(entries); err != nil {
		logger.Error("face index rebuild failed", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return err
	}

	stats := biometric.FaceService.Index.Stats()
	logger.Info("face index rebuilt", logger.LoggerOptions{
		Key:  "reason",
		Data: reason,
	}, logger.LoggerOptions{
		Key:  "identities",
		Data: stats.Count,
	}, logger.LoggerOptions{
		Key:  "version",
		Data: stats.Version,
	})
	return nil
}
