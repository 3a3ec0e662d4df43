package middleware

import (
	"github.com/haierkeys/prompt-workspace-service/pkg/app"
	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// ActorAuth 操作者身份中间件
// 从请求头或查询参数解析操作者标识，缺失则拒绝请求
func ActorAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var actorID string
		response := app.NewResponse(c)

		if s, exist := c.GetQuery("actorId"); exist {
			actorID = s
		} else if s := c.GetHeader("X-Actor-Id"); len(s) != 0 {
			actorID = s
		}

		if actorID == "" {
			response.ToResponse(code.ErrorNotActorID)
			c.Abort()
			return
		}

		c.Set("actor_id", actorID)

		if name := c.GetHeader("X-Actor-Name"); name != "" {
			c.Set("actor_name", name)
		} else if s, exist := c.GetQuery("actorName"); exist {
			c.Set("actor_name", s)
		}

		c.Next()
	}
}
