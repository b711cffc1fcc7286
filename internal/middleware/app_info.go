package middleware

import (
	"github.com/haierkeys/offline-note-vault/global"
	appconf "github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/pkg/app"

	"github.com/gin-gonic/gin"
)

func AppInfo() gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", global.Name)
		c.Set("app_version", appconf.Version)
		c.Set("access_host", app.GetAccessHost(c))

		c.Next()
	}
}
