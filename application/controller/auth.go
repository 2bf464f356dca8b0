package controller

import (
	"net/http"
	"os"
	"strconv"
	"time"

	apperrors "veriface.io/application/appErrors"
	"veriface.io/application/constants"
	"veriface.io/application/controller/dto"
	"veriface.io/application/interfaces"
	"veriface.io/application/repository"
	"veriface.io/entities"
	"veriface.io/infrastructure/auth"
	"veriface.io/infrastructure/cryptography"
	"veriface.io/infrastructure/database/repository/cache"
	"veriface.io/infrastructure/logger"
	server_response "veriface.io/infrastructure/serverResponse"
	"veriface.io/infrastructure/validator"
)

const sessionKeySuffix = "-session"

func sessionDuration() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("SESSION_DURATION_HOURS"))
	if err != nil || hours <= 0 {
		hours = 1
	}
	return time.Duration(hours) * time.Hour
}

// createSession issues an access token and pins it in the cache so a
// user has at most one live session at a time.
func createSession(user *entities.User, deviceID string, userAgent string, faceVerified bool) *string {
	duration := sessionDuration()
	token, err := auth.GenerateAuthToken(auth.ClaimsData{
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		DeviceID:     deviceID,
		UserAgent:    userAgent,
		FaceVerified: faceVerified,
		TokenType:    "access_token",
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(duration).Unix(),
	})
	if err != nil {
		logger.Error("an error occured while generating auth token", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return nil
	}
	created := cache.Cache.CreateEntry(user.ID+sessionKeySuffix, *token, duration)
	if !created {
		return nil
	}
	return token
}

func RegisterUser(ctx *interfaces.ApplicationContext[dto.RegisterUserDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr, *ctx.DeviceID)
		return
	}

	userRepo := repository.UserRepo()
	exists, err := userRepo.CountDocs(map[string]interface{}{
		"email": ctx.Body.Email,
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}
	if exists != 0 {
		apperrors.EntityAlreadyExistsError(ctx.Ctx, "An account with this email already exists", *ctx.DeviceID)
		return
	}

	hashedPassword, err := cryptography.CryptoHahser.HashString(ctx.Body.Password, nil)
	if err != nil {
		apperrors.FatalServerError(ctx.Ctx, err, *ctx.DeviceID)
		return
	}

	user, err := userRepo.CreateOne(nil, entities.User{
		FirstName: ctx.Body.FirstName,
		LastName:  ctx.Body.LastName,
		Email:     ctx.Body.Email,
		Password:  string(hashedPassword),
		UserAgent: ctx.UserAgent,
		Devices: []entities.Device{{
			ID:        *ctx.DeviceID,
			Name:      ctx.DeviceName,
			LastLogin: time.Now(),
		}},
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}

	token := createSession(user, *ctx.DeviceID, ctx.UserAgent, false)
	if token == nil {
		apperrors.FatalServerError(ctx.Ctx, nil, *ctx.DeviceID)
		return
	}

	server_response.Responder.Respond(ctx.Ctx, http.StatusCreated, "account created", map[string]any{
		"token":        token,
		"faceEnrolled": false,
	}, nil, &constants.ACCOUNT_CREATED, ctx.DeviceID)
}

func LoginUser(ctx *interfaces.ApplicationContext[dto.LoginDTO]) {
	validationErr := validator.ValidatorInstance.ValidateStruct(ctx.Body)
	if validationErr != nil {
		apperrors.ValidationFailedError(ctx.Ctx, validationErr, *ctx.DeviceID)
		return
	}

	userRepo := repository.UserRepo()
	user, err := userRepo.FindOneByFilter(map[string]interface{}{
		"email": ctx.Body.Email,
	})
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}
	if user == nil || user.Deactivated {
		apperrors.AuthenticationError(ctx.Ctx, "invalid email or password", *ctx.DeviceID)
		return
	}
	if !cryptography.CryptoHahser.VerifyHashData(user.Password, ctx.Body.Password) {
		apperrors.AuthenticationError(ctx.Ctx, "invalid email or password", *ctx.DeviceID)
		return
	}

	token := createSession(user, *ctx.DeviceID, ctx.UserAgent, false)
	if token == nil {
		apperrors.FatalServerError(ctx.Ctx, nil, *ctx.DeviceID)
		return
	}

	var responseCode *uint
	if !user.FaceEnrolled {
		responseCode = &constants.FACE_NOT_ENROLLED
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "login successful", map[string]any{
		"token":        token,
		"faceEnrolled": user.FaceEnrolled,
	}, nil, responseCode, ctx.DeviceID)
}

func LogoutUser(ctx *interfaces.ApplicationContext[any]) {
	auth.SignOutUser(ctx.GetStringContextData("UserID")+sessionKeySuffix, "user initiated logout")
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "logged out", nil, nil, nil, ctx.DeviceID)
}
