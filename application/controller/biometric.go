package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "veriface.io/application/appErrors"
	"veriface.io/application/constants"
	"veriface.io/application/controller/dto"
	"veriface.io/application/interfaces"
	"veriface.io/application/repository"
	"veriface.io/entities"
	"veriface.io/infrastructure/biometric"
	biometric_types "veriface.io/infrastructure/biometric/types"
	"veriface.io/infrastructure/database/repository/cache"
	"veriface.io/infrastructure/logger"
	messagequeue "veriface.io/infrastructure/message_queue"
	queue_tasks "veriface.io/infrastructure/message_queue/tasks"
	mq_types "veriface.io/infrastructure/message_queue/types"
	server_response "veriface.io/infrastructure/serverResponse"
	"veriface.io/infrastructure/validator"
)

const faceLoginAttemptsKey = "face-login-attempts"

func decodeFrames(ctx *interfaces.ApplicationContext[dto.EnrollFaceDTO]) []*biometric_types.PixelBuffer {
	frames := make([]*biometric_types.PixelBuffer, 0, len(ctx.Body.Frames))
	for _, payload := range ctx.Body.Frames {
		pixels, err := biometric.DecodeFrame(payload)
		if err != nil {
			apperrors.ClientError(ctx.Ctx, "one or more frames could not be decoded", []error{err}, nil, *ctx.DeviceID)
			return nil
		}
		frames = append(frames, pixels)
	}
	return frames
}

func enqueueIndexRebuild(reason string) {
	payload, _ := json.Marshal(queue_tasks.FaceIndexRebuildPayload{Reason: reason})
	messagequeue.TaskQueue.Enqueue(mq_types.QueueTask{
		Name:     queue_tasks.HandleFaceIndexRebuildTaskName,
		Payload:  payload,
		Priority: mq_types.Low,
	})
}

// EnrollFace processes an enrollment burst, persists the resulting
// template and publishes it to the live match index.
func EnrollFace(ctx *interfaces.ApplicationContext[dto.EnrollFaceDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr, *ctx.DeviceID)
		return
	}

	frames := decodeFrames(ctx)
	if frames == nil {
		return
	}

	result, err := biometric.FaceService.EnrollFrames(frames)
	if err != nil {
		if errors.Is(err, biometric_types.ErrInvalidDimensions) || errors.Is(err, biometric_types.ErrInsufficientSamples) {
			apperrors.ClientError(ctx.Ctx, "enrollment frames could not be processed", []error{err}, &constants.FACE_ENROLLMENT_REJECTED, *ctx.DeviceID)
			return
		}
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}
	if !result.Quality.IsValid {
		apperrors.CustomError(ctx.Ctx, result.Quality.Reason, &constants.FACE_ENROLLMENT_REJECTED, *ctx.DeviceID)
		return
	}

	userID := ctx.GetStringContextData("UserID")
	samples := make([][]float64, 0, len(result.Samples))
	variants := make([]biometric_types.Embedding, 0, len(result.Samples)+2)
	variants = append(variants, result.Aggregated.Mean, result.Aggregated.Median)
	for _, sample := range result.Samples {
		samples = append(samples, sample)
		variants = append(variants, sample)
	}

	_, err = repository.FaceTemplateRepo().ReplaceOne(map[string]interface{}{
		"userID": userID,
	}, entities.FaceTemplate{
		UserID:     userID,
		Mean:       result.Aggregated.Mean,
		Median:     result.Aggregated.Median,
		Samples:    samples,
		FrameCount: len(ctx.Body.Frames),
		Strategy:   result.Strategy,
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}

	if err := biometric.FaceService.Index.Add(userID, variants); err != nil {
		logger.Error("failed to publish enrolled template to the match index", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}

	_, err = repository.UserRepo().UpdatePartialByID(userID, map[string]any{
		"faceEnrolled": true,
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}

	enqueueIndexRebuild("face enrollment")

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "face enrolled", dto.FaceEnrollmentResponse{
		FrameCount: len(ctx.Body.Frames),
		Strategy:   result.Strategy,
	}, nil, nil, ctx.DeviceID)
}

// FaceLogin verifies a login frame against the signed in user's template
// and upgrades the session to face verified on success.
func FaceLogin(ctx *interfaces.ApplicationContext[dto.FaceLoginDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr, *ctx.DeviceID)
		return
	}

	cache.Cache.IncrementField(faceLoginAttemptsKey, 1)

	pixels, err := biometric.DecodeFrame(ctx.Body.Frame)
	if err != nil {
		apperrors.ClientError(ctx.Ctx, "frame could not be decoded", []error{err}, nil, *ctx.DeviceID)
		return
	}

	result, outcome, err := biometric.FaceService.AuthenticateFrame(pixels)
	if err != nil {
		if errors.Is(err, biometric_types.ErrIndexNotReady) {
			apperrors.CustomError(ctx.Ctx, "face matching is warming up, try again shortly", &constants.FACE_INDEX_NOT_READY, *ctx.DeviceID)
			return
		}
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}
	if outcome == nil {
		apperrors.CustomError(ctx.Ctx, "no face was found in the frame", &constants.FACE_NOT_DETECTED, *ctx.DeviceID)
		return
	}
	if result == nil {
		apperrors.CustomError(ctx.Ctx, "face did not match any enrolled identity", &constants.FACE_MATCH_AMBIGUOUS, *ctx.DeviceID)
		return
	}

	userID := ctx.GetStringContextData("UserID")
	if result.IdentityID != userID {
		logger.Warning("face login matched a different identity than the session owner", logger.LoggerOptions{
			Key:  "sessionUserID",
			Data: userID,
		}, logger.LoggerOptions{
			Key:  "matchedIdentity",
			Data: result.IdentityID,
		})
		apperrors.AuthenticationError(ctx.Ctx, "face verification failed", *ctx.DeviceID)
		return
	}

	user, err := repository.UserRepo().FindByID(userID)
	if err != nil || user == nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}

	token := createSession(user, *ctx.DeviceID, ctx.GetStringContextData("UserAgent"), true)
	if token == nil {
		apperrors.FatalServerError(ctx.Ctx, nil, *ctx.DeviceID)
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "face verified", map[string]any{
		"token": token,
		"match": dto.FaceLoginResponse{
			UserID:     result.IdentityID,
			Distance:   result.Distance,
			Confidence: result.Confidence,
			Strategy:   outcome.Strategy,
		},
	}, nil, nil, ctx.DeviceID)
}

// RemoveFace deletes the stored template and drops the identity from the
// match index. Requires a face verified session.
func RemoveFace(ctx *interfaces.ApplicationContext[any]) {
	userID := ctx.GetStringContextData("UserID")

	deleted, err := repository.FaceTemplateRepo().DeleteOne(map[string]interface{}{
		"userID": userID,
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}
	if deleted == 0 {
		apperrors.NotFoundError(ctx.Ctx, "no face template found for this account", ctx.DeviceID)
		return
	}

	biometric.FaceService.Index.Remove(userID)

	_, err = repository.UserRepo().UpdatePartialByID(userID, map[string]any{
		"faceEnrolled": false,
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}

	enqueueIndexRebuild("face template removal")

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "face template removed", nil, nil, nil, ctx.DeviceID)
}

// FaceStats reports pipeline and index statistics.
func FaceStats(ctx *interfaces.ApplicationContext[any]) {
	stats := biometric.FaceService.GetStats()
	indexStats := biometric.FaceService.Index.Stats()

	var attempts int64
	if raw := cache.Cache.FindOne(faceLoginAttemptsKey); raw != nil {
		_ = json.Unmarshal([]byte(*raw), &attempts)
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "face stats", dto.FaceStatsResponse{
		EnrolledIdentities: indexStats.Count,
		IndexVersion:       indexStats.Version,
		IndexReady:         indexStats.Ready,
		TotalRequests:      stats.TotalRequests,
		SuccessfulRequests: stats.SuccessfulRequests,
		AverageTimeMs:      stats.AverageTime,
		FaceLoginAttempts:  attempts,
	}, nil, nil, ctx.DeviceID)
}
