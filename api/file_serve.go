package api

import (
	"net/http"
	"os"

	"chaton/chat-api/storage"

	"github.com/gin-gonic/gin"
)

// FileServe hands out stored pictures and attachments. With local
// storage the file is served directly, with s3 the client is
// redirected to the CDN
func (a *API) FileServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	name := c.Param("name")
	if name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file name provided",
			"requestID": requestID,
		})
		return
	}

	if local, ok := a.Store.(*storage.LocalStore); ok {
		path := local.Path(name)

		if _, err := os.Stat(path); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "File not found",
				"requestID": requestID,
			})
			return
		}

		c.File(path)
		return
	}

	c.Redirect(http.StatusFound, a.Store.URL(name))
}
