package middlewares

import (
	"errors"

	apperrors "veriface.io/application/appErrors"
	"veriface.io/application/interfaces"
	"veriface.io/infrastructure/useragent"
)

func UserAgentMiddleware(ctx *interfaces.ApplicationContext[any]) (*interfaces.ApplicationContext[any], bool) {
	agent := ctx.GetHeader("User-Agent")
	if agent == nil || *agent == "" {
		apperrors.ClientError(ctx.Ctx, "user agent header missing 🤨", []error{errors.New("user agent header missing")}, nil, *ctx.GetHeader("X-Device-Id"))
		return nil, false
	}
	agentDetails := useragent.ParseUserAgent(*agent)
	if agentDetails.Bot {
		apperrors.UnsupportedUserAgent(ctx.Ctx, *ctx.GetHeader("X-Device-Id"))
		return nil, false
	}
	ctx.UserAgent = *agent
	ctx.DeviceName = agentDetails.DeviceLabel()
	deviceID := ctx.GetHeader("X-Device-Id")
	if deviceID == nil || *deviceID == "" {
		apperrors.MalformedHeader(ctx.Ctx, nil)
		return nil, false
	}
	ctx.DeviceID = deviceID
	return ctx, true
}
