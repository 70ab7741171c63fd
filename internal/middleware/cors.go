package middleware

import (
	"github.com/go-chi/cors"
)

// CORS builds options for the browser frontend. Without configured origins
// only the local dev server is allowed. A "*" origin turns credentials off
// since browsers reject that combination.
func CORS(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}
