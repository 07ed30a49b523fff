package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/interview-coach/internal/pkg/apierr"
	"github.com/yungbote/interview-coach/internal/pkg/ctxutil"
)

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return &apierr.Error{Status: http.StatusBadRequest, Code: apierr.CodeValidation, Message: "Invalid request body", Err: err}
	}
	return nil
}

// callerID is the user resolved by the auth middleware.
func callerID(c *gin.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized(nil)
	}
	return rd.UserID, nil
}

// parseQuestionCount accepts a JSON number or a numeric string. A missing,
// null or empty value yields nil.
func parseQuestionCount(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	invalid := apierr.Validation("Number of questions must be a whole number.")

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalid
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	} else {
		text = string(raw)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, invalid
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		// Out of range either way; the service reports the bounds.
		f = math.Copysign(math.MaxInt32, f)
	}
	n := int(f)
	return &n, nil
}
