package testutils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTestGinContext returns a gin context in test mode bound to req, with
// params set as if a route had matched.
func GetTestGinContext(w http.ResponseWriter, req *http.Request, params ...gin.Param) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	return c
}
