package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// CompressionMiddleware gzips responses for clients that accept it.
type CompressionMiddleware struct{}

func NewCompressionMiddleware() Middleware {
	return &CompressionMiddleware{}
}

func (c *CompressionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		// Length of the compressed body is not known in advance.
		w.Header().Del("Content-Length")

		next.ServeHTTP(compressionWriter{Writer: gz, ResponseWriter: w}, r)
	})
}

// compressionWriter routes body writes through the gzip.Writer.
type compressionWriter struct {
	io.Writer
	http.ResponseWriter
}

func (c compressionWriter) Write(b []byte) (int, error) {
	return c.Writer.Write(b)
}

func (c compressionWriter) Flush() {
	if gz, ok := c.Writer.(*gzip.Writer); ok {
		gz.Flush()
	}
	if flusher, ok := c.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
