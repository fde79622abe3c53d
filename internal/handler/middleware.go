package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/auth"
)

// BearerMiddleware lê o token Bearer do operador.
//
// Com required=true o token é obrigatório e validado pelo Issuer; o subject
// validado vai para o contexto. Com required=false um token presente é apenas
// guardado para ser repassado aos colaboradores.
func BearerMiddleware(issuer *auth.Issuer, required bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if required {
					logger.Warn("auth: missing or malformed token",
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
					)
					writeError(w, http.StatusUnauthorized, "Token de autenticación no proporcionado")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithBearer(r.Context(), token)
			if required {
				if issuer == nil {
					writeError(w, http.StatusServiceUnavailable, "auth not configured")
					return
				}
				claims, err := issuer.ValidateAccessToken(token)
				if err != nil {
					logger.Warn("auth: invalid or expired token",
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr),
						zap.Error(err),
					)
					writeError(w, http.StatusUnauthorized, err.Error())
					return
				}
				ctx = auth.WithSubject(ctx, claims.Sub)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// CORS libera o front do assistente. Lista vazia aceita qualquer origem.
func CORS(allowed []string) func(http.Handler) http.Handler {
	if len(allowed) == 0 {
		allowed = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}

// RateLimit limita o despacho de eventos por sessão (ou por IP fora de uma sessão).
// requests <= 0 desliga o limite.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return nil
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if sid := chi.URLParam(r, "sessionId"); sid != "" {
				return "session:" + sid, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
