package middleware

import (
	"compress/gzip"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecompressRequest inflates gzip request bodies and caps every body, compressed or not, at maxBytes.
func DecompressRequest(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		if !strings.Contains(c.GetHeader("Content-Encoding"), "gzip") {
			c.Next()
			return
		}

		compressed := c.Request.Body
		reader, err := gzip.NewReader(compressed)
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		defer compressed.Close()

		c.Request.Body = &limitedGzipBody{Reader: reader, max: maxBytes}
		c.Request.Header.Del("Content-Encoding")
		c.Request.ContentLength = -1
		c.Next()
	}
}

// limitedGzipBody fails reads once the inflated size exceeds max.
type limitedGzipBody struct {
	*gzip.Reader
	max  int64
	read int64
}

func (b *limitedGzipBody) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	b.read += int64(n)
	if b.max > 0 && b.read > b.max {
		return n, &http.MaxBytesError{Limit: b.max}
	}
	return n, err
}
