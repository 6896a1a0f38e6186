package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// RequireAdmin 擋下不在允許名單上的後台請求
// 身份驗證在外部系統完成，這裡只檢查gateway帶進來的信箱
func (impl *ServerImpl) RequireAdmin(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.GetHeader("X-Admin-Email")))
	if email == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing admin identity"})
		return
	}
	allowed := lo.ContainsBy(impl.config.Admin.Emails, func(allowedEmail string) bool {
		return strings.EqualFold(strings.TrimSpace(allowedEmail), email)
	})
	if !allowed {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not an admin"})
		return
	}
	c.Next()
}
