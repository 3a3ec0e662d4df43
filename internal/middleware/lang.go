package middleware

import (
	"strings"

	"github.com/haierkeys/prompt-workspace-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 根据请求选择验证消息翻译器（支持依赖注入）
// 语言取自 lang 查询参数或请求头，未命中时退回英文
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang, exist := c.GetQuery("lang")
		if !exist {
			lang = c.GetHeader("lang")
		}
		lang = strings.ToLower(strings.ReplaceAll(lang, "-", "_"))

		trans, found := uni.GetTranslator(lang)
		if !found {
			trans, _ = uni.GetTranslator("en")
		}
		c.Set("trans", trans)

		code.SetGlobalDefaultLang(lang)

		c.Next()
	}
}
