package api

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/surya-d-naidu/UniOD/internal/model"
)

var registerValidatorsOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义规则
//
//	odsession: FN / AN / BOTH
//	regno:     非空,不含空白,最长 64 字符
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("odsession", validateOdSession)
		_ = v.RegisterValidation("regno", validateRegistrationNumber)
	})
}

func validateOdSession(fl validator.FieldLevel) bool {
	return model.Session(fl.Field().String()).Valid()
}

func validateRegistrationNumber(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" || len(value) > 64 {
		return false
	}
	return strings.IndexFunc(value, unicode.IsSpace) < 0
}

// bindJSON 绑定请求体,失败时返回 400
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request data")
		return false
	}
	return true
}

// ParseID 解析路径中的数字 ID
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}
