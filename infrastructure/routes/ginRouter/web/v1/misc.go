package routev1

import (
	"github.com/gin-gonic/gin"

	"veriface.io/application/controller"
	"veriface.io/application/interfaces"
	"veriface.io/application/utils"
)

func MiscRouter(router *gin.RouterGroup) {
	miscRouter := router.Group("/misc")
	{
		miscRouter.GET("/face/stats", func(ctx *gin.Context) {
			controller.FaceStats(&interfaces.ApplicationContext[any]{
				Ctx:      ctx,
				DeviceID: utils.GetStringPointer(ctx.GetHeader("X-Device-Id")),
			})
		})
	}
}
