package controller

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo/options"

	apperrors "veriface.io/application/appErrors"
	"veriface.io/application/interfaces"
	"veriface.io/application/repository"
	server_response "veriface.io/infrastructure/serverResponse"
)

func GetUserProfile(ctx *interfaces.ApplicationContext[any]) {
	userRepo := repository.UserRepo()
	profile, err := userRepo.FindByID(ctx.GetStringContextData("UserID"), options.FindOne().SetProjection(map[string]any{
		"_id":          1,
		"firstName":    1,
		"lastName":     1,
		"email":        1,
		"faceEnrolled": 1,
		"devices":      1,
		"createdAt":    1,
	}))
	if err != nil {
		apperrors.UnknownError(ctx.Ctx, err, nil, *ctx.DeviceID)
		return
	}
	if profile == nil {
		apperrors.NotFoundError(ctx.Ctx, "Account not found", ctx.DeviceID)
		return
	}
	server_response.Responder.Respond(ctx.Ctx, http.StatusOK, "profile", profile, nil, nil, ctx.DeviceID)
}
