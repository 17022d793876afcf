package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 3 * time.Second

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// pathID reads a positive integer path param, writing a 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := parseID(c.Param(name), name)
	if err != nil {
		badRequest(c, err.Error())
		return 0, false
	}
	return id, true
}

// queryID is pathID for query string params.
func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := parseID(c.Query(name), name)
	if err != nil {
		badRequest(c, err.Error())
		return 0, false
	}
	return id, true
}
