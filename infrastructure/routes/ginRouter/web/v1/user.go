package routev1

import (
	"github.com/gin-gonic/gin"

	"veriface.io/application/controller"
	"veriface.io/application/interfaces"
	middlewares "veriface.io/infrastructure/middleware"
)

func UserRouter(router *gin.RouterGroup) {
	userRouter := router.Group("/user")
	{
		userRouter.GET("/profile", middlewares.UserAuthenticationMiddleware(false), func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			controller.GetUserProfile(&interfaces.ApplicationContext[any]{
				Ctx:      ctx,
				Keys:     appContext.Keys,
				DeviceID: appContext.DeviceID,
			})
		})

		userRouter.DELETE("/face", middlewares.UserAuthenticationMiddleware(true), func(ctx *gin.Context) {
			appContext := ctx.MustGet("AppContext").(*interfaces.ApplicationContext[any])
			controller.RemoveFace(&interfaces.ApplicationContext[any]{
				Ctx:      ctx,
				Keys:     appContext.Keys,
				DeviceID: appContext.DeviceID,
			})
		})
	}
}
