package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Validate checks a session token. The auth middleware does all the
// work, reaching this handler means the token is good
func (a *API) Validate(c *gin.Context) {
	c.Status(http.StatusOK)
}
