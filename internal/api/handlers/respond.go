package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError 输出统一的错误响应
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// respondValidation 输出字段级校验错误（422）
func respondValidation(c *gin.Context, fieldErrors map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": "The given data was invalid.",
		"errors":  fieldErrors,
	})
}

// fieldError 单字段校验错误的快捷输出
func fieldError(c *gin.Context, field, message string) {
	respondValidation(c, map[string][]string{field: {message}})
}

// bindJSON 绑定 JSON 请求体，失败时输出 422 并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// respondBindError 将绑定错误转换为字段级错误响应
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fieldErrors := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			field := snakeCase(fe.Field())
			fieldErrors[field] = append(fieldErrors[field], validationMessage(field, fe))
		}
		respondValidation(c, fieldErrors)
		return
	}
	respondError(c, http.StatusUnprocessableEntity, "Invalid request body")
}

// validationMessage 生成 Laravel 风格的校验提示
func validationMessage(field string, fe validator.FieldError) string {
	name := strings.ReplaceAll(field, "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", snakeCase(fe.Param()))
	case "gte":
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

// snakeCase 将结构体字段名转换为 snake_case（ToDriverID -> to_driver_id）
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && !unicode.IsUpper(runes[i+1])
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
