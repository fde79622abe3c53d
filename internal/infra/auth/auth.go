// Package auth concentra os tokens JWT do BFA: validação do token do operador
// (middleware HTTP) e emissão de tokens de serviço de curta duração usados
// quando o BFA chama os colaboradores sem um token de operador para repassar.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
)

// Token types carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeService = "service"
)

// Claims represents the custom claims of BFA tokens.
type Claims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Issuer assina e valida tokens HS256 com um segredo compartilhado.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	name   string
	now    func() time.Time
}

// NewIssuer creates an Issuer. ttl is the lifetime of tokens it signs.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		name:   "cobranza-bfa",
		now:    time.Now,
	}
}

// Sign emite um token para subject com o tipo informado.
func (i *Issuer) Sign(subject, tokenType string) (string, error) {
	now := i.now()
	claims := Claims{
		Sub:  subject,
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			Issuer:    i.name,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateAccessToken valida um token de operador ("type":"access").
func (i *Issuer) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido o expirado"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if claims.Type != TypeAccess {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}
	return claims, nil
}

// ============================================================
// Bearer no contexto
// ============================================================

type contextKey string

const (
	bearerKey  contextKey = "bearer"
	subjectKey contextKey = "subject"
)

// WithBearer guarda o token bruto do operador para ser repassado aos colaboradores.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerFromContext returns the operator token stored by WithBearer.
func BearerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(bearerKey).(string)
	return v
}

// WithSubject stores the authenticated operator id.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}

// SubjectFromContext returns the authenticated operator id, if any.
func SubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(subjectKey).(string)
	return v
}

// ForwardingTokenSource repassa o token do operador quando presente; caso
// contrário, emite um token de serviço assinado pelo Issuer.
// Com Issuer nil e sem token no contexto, nenhuma credencial é enviada.
type ForwardingTokenSource struct {
	Issuer  *Issuer
	Service string
}

// Token implements port.TokenSource.
func (s *ForwardingTokenSource) Token(ctx context.Context) (string, error) {
	if tok := BearerFromContext(ctx); tok != "" {
		return tok, nil
	}
	if s.Issuer == nil {
		return "", nil
	}
	tok, err := s.Issuer.Sign(s.Service, TypeService)
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return tok, nil
}
