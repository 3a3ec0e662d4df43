package api_router

import (
	"expvar"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Expvar 以 JSON 形式导出 expvar 注册的运行时指标
func Expvar(c *gin.Context) {
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)

	w := c.Writer
	w.WriteString("{\n")
	first := true
	expvar.Do(func(kv expvar.KeyValue) {
		if !first {
			w.WriteString(",\n")
		}
		first = false
		w.WriteString("\"" + kv.Key + "\": " + kv.Value.String())
	})
	w.WriteString("\n}\n")
}
