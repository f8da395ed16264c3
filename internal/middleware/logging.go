package middleware

import (
	"net/http"

	"github.com/2beens/pushuppal/pkg"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent := r.Header.Get("User-Agent")
			userIP, err := pkg.ReadUserIP(r)
			if err != nil {
				userIP = r.RemoteAddr
			}
			log.Tracef(" ====> request [%s] path: [%s] ip: [%s] [UA: %s]", r.Method, r.URL.Path, userIP, userAgent)
			next.ServeHTTP(w, r)
		})
	}
}
