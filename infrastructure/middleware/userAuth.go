package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"veriface.io/application/interfaces"
	"veriface.io/application/middlewares"
	"veriface.io/application/utils"
)

func UserAuthenticationMiddleware(requireFaceVerified bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authToken := strings.TrimPrefix(ctx.Request.Header.Get("Authorization"), "Bearer ")
		appContext, next := middlewares.UserAuthenticationMiddleware(&interfaces.ApplicationContext[any]{
			Ctx:      ctx,
			Keys:     ctx.Keys,
			Header:   ctx.Request.Header,
			DeviceID: utils.GetStringPointer(ctx.Request.Header.Get("X-Device-Id")),
		}, authToken, requireFaceVerified)
		if next {
			ctx.Set("AppContext", appContext)
			ctx.Next()
		}
	}
}
