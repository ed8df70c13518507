package middleware

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

var publicUploadExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".pdf":  {},
	".mp4":  {},
	".webm": {},
	".txt":  {},
	".zip":  {},
	".docx": {},
	".pptx": {},
	".xlsx": {},
}

// UploadsProtection only serves file types the upload service accepts from
// the local uploads directory. Anything else, including dotfiles, is a 404.
func UploadsProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawPath := strings.ToLower(strings.TrimSpace(c.Param("filepath")))
		if strings.Contains(rawPath, "/.") {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		if _, ok := publicUploadExtensions[filepath.Ext(rawPath)]; ok {
			c.Header("X-Content-Type-Options", "nosniff")
			c.Next()
			return
		}

		c.AbortWithStatus(http.StatusNotFound)
	}
}
