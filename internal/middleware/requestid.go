package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// RequestID проставляет идентификатор запроса, если он не был задан.
// Telegram свой идентификатор не присылает, поэтому обычно он генерируется здесь.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
			r.Header.Set(headerRequestID, reqID)
		}
		w.Header().Set(headerRequestID, reqID)
		next.ServeHTTP(w, r)
	})
}

// RequestIDFrom возвращает идентификатор, проставленный RequestID.
func RequestIDFrom(r *http.Request) string {
	return r.Header.Get(headerRequestID)
}
