package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ValidError a single field validation failure
// ValidError 单个字段的校验错误
type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// BindAndValid binds request parameters and validates them, translating
// validator messages with the translator the lang middleware injected
// BindAndValid 绑定并校验请求参数，使用 lang 中间件注入的翻译器翻译校验消息
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors

	err := c.ShouldBind(v)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs = append(errs, &ValidError{
				Key:     "body",
				Message: err.Error(),
			})
			return false, errs
		}

		trans := transFromContext(c)
		for _, verr := range verrs {
			var message string
			if trans != nil {
				message = verr.Translate(trans)
			} else {
				message = verr.Error()
			}
			errs = append(errs, &ValidError{
				Key:     verr.Field(),
				Message: message,
			})
		}
		return false, errs
	}

	return true, nil
}

func transFromContext(c *gin.Context) ut.Translator {
	v := c.Value("trans")
	if v == nil {
		return nil
	}
	trans, ok := v.(ut.Translator)
	if !ok {
		return nil
	}
	return trans
}
