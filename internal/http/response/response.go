package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-coach/internal/pkg/apierr"
)

type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type MessageBody struct {
	Message string `json:"message"`
}

// RespondError writes err as {"message","code"}. The full error is attached
// to the gin context for the request logger; 5xx bodies never carry it.
func RespondError(c *gin.Context, err error) {
	ae := apierr.As(err)
	if ae == nil {
		ae = apierr.Server(nil)
	} else {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(ae.Status, ErrorBody{
		Message: ae.PublicMessage(),
		Code:    ae.Code,
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Message: msg})
}
