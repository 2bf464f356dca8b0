package middlewares

import (
	apperrors "veriface.io/application/appErrors"
	"veriface.io/application/interfaces"
	authusecase "veriface.io/application/usecases/auth"
)

func UserAuthenticationMiddleware(ctx *interfaces.ApplicationContext[any], authToken string, requireFaceVerified bool) (*interfaces.ApplicationContext[any], bool) {
	deviceID := ""
	if ctx.DeviceID != nil {
		deviceID = *ctx.DeviceID
	}
	authResult := authusecase.IsUserSignedIn(authToken, deviceID, requireFaceVerified)

	if !authResult.IsAuthenticated {
		apperrors.AuthenticationError(ctx.Ctx, authResult.ErrorMessage, deviceID)
		return nil, false
	}

	ctx.SetContextData("UserID", authResult.UserID)
	ctx.SetContextData("Email", authResult.Email)
	ctx.SetContextData("FirstName", authResult.FirstName)
	ctx.SetContextData("LastName", authResult.LastName)
	ctx.SetContextData("UserAgent", authResult.UserAgent)
	ctx.SetContextData("DeviceID", authResult.DeviceID)
	ctx.SetContextData("FaceVerified", authResult.FaceVerified)

	return ctx, true
}
