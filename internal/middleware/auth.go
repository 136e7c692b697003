package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/findmelab/findme/internal/auth"
)

// WithAuth resolves caller identity from a bearer token, if one is present.
//
// The rules, in order: no token means pass through untouched; a token that
// cannot be parsed is logged and ignored (downstream authorization sees an
// absent identity, never an error); a parsed token only populates the
// identity slot when the slot is still empty and the token validates. An
// identity established earlier in the pipeline (the login path) is never
// overridden.
func WithAuth(codec *auth.Codec, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			subject, err := codec.ExtractSubject(token)
			if err != nil {
				logger.Debug("unparseable bearer token",
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestIDFrom(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if _, occupied := auth.IdentityFrom(ctx); !occupied {
				if codec.Validate(token) {
					ctx = auth.WithIdentity(ctx, auth.TokenIdentity{Sub: subject})
				} else {
					logger.Debug("bearer token failed validation",
						zap.String("subject", subject),
						zap.String("request_id", RequestIDFrom(ctx)),
					)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that reached the handler with no resolved
// identity. The 401 body is written by the onReject callback so status
// mapping stays at the API boundary.
func RequireIdentity(onReject func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.IdentityFrom(r.Context()); !ok {
				onReject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
