package handlers

import (
	"strconv"

	"github.com/flyx/flyx-backend/internal/middleware"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/flyx/flyx-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// requestMeta collects the caller details recorded on audit entries
func requestMeta(c *gin.Context) services.RequestMeta {
	meta := services.RequestMeta{
		IPAddress:     utils.GetRealIP(c),
		UserAgent:     utils.GetUserAgent(c),
		CorrelationID: middleware.GetRequestID(c),
	}
	if user, ok := middleware.GetUserContext(c); ok {
		id := user.UserID
		meta.ActorID = &id
	}
	return meta
}

// pagination reads limit and offset query parameters
func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
