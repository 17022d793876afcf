package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-Id"

// bodies above this size are logged truncated
const maxLoggedBody = 8 << 10

const redacted = "***"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"secret":        {},
	"email":         {},
	"address":       {},
}

// teeWriter keeps the first maxLoggedBody bytes of the response.
type teeWriter struct {
	gin.ResponseWriter
	head bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.head.Len(); room > 0 {
		w.head.Write(b[:min(len(b), room)])
	}
	return w.ResponseWriter.Write(b)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.TrimSpace(contentType), "application/json")
}

// peekBody returns up to maxLoggedBody bytes of the request body and leaves
// the full, unmodified body readable for the handlers.
func peekBody(r *http.Request) (head []byte, truncated bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}
	buf := make([]byte, maxLoggedBody+1)
	n, _ := io.ReadFull(r.Body, buf)
	head = buf[:n]
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	if n > maxLoggedBody {
		return head[:maxLoggedBody], true
	}
	return head, false
}

// scrub masks sensitive fields of a JSON document. Anything that does not
// parse is returned as-is.
func scrub(raw []byte) string {
	var doc any
	if len(raw) == 0 || json.Unmarshal(raw, &doc) != nil {
		return string(raw)
	}
	out, err := json.Marshal(mask(doc))
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
				t[k] = redacted
			} else {
				t[k] = mask(child)
			}
		}
	case []any:
		for i := range t {
			t[i] = mask(t[i])
		}
	}
	return v
}

func bodyAttr(key string, head []byte, truncated bool) slog.Attr {
	s := scrub(head)
	if truncated {
		s += "...(truncated)"
	}
	return slog.String(key, s)
}

// Logging tags every request with a request id, puts a request-scoped logger
// into both the gin context and the request context, and writes one access
// line per request once the handler chain returns.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, reqID)
		}
		c.Header(RequestIDHeader, reqID)

		l := base.With("req_id", reqID, "method", c.Request.Method, "route", c.FullPath())
		logging.With(c, l)
		c.Request = c.Request.WithContext(logging.WithCtx(c.Request.Context(), l))

		var attrs []slog.Attr
		if isJSON(c.ContentType()) {
			head, truncated := peekBody(c.Request)
			if len(head) > 0 {
				attrs = append(attrs, bodyAttr("req_body", head, truncated))
			}
		}

		tw := &teeWriter{ResponseWriter: c.Writer}
		c.Writer = tw

		c.Next()

		status := c.Writer.Status()
		attrs = append(attrs,
			slog.Int("status", status),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
			slog.Int("resp_bytes", max(c.Writer.Size(), 0)),
			slog.String("remote", c.ClientIP()),
		)
		if isJSON(tw.Header().Get("Content-Type")) && tw.head.Len() > 0 {
			attrs = append(attrs, bodyAttr("resp_body", tw.head.Bytes(), tw.head.Len() >= maxLoggedBody))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		l.LogAttrs(c.Request.Context(), level, "http_request", attrs...)
	}
}
