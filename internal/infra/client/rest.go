// Package client implementa os adaptadores HTTP dos colaboradores externos:
// diretório de clientes, serviço de decisão e serviço de estratégias.
//
// Todas as chamadas passam por um circuit breaker por colaborador; apenas
// leituras idempotentes são repetidas com backoff. Respostas não-2xx viram
// domain.ErrRemote com a mensagem legível devolvida pelo serviço.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/port"
)

var tracer = otel.Tracer("client")

// maxErrorBody limita a leitura do corpo de erro.
const maxErrorBody = 64 << 10

// rest é o transporte JSON compartilhado pelos clientes.
type rest struct {
	httpClient *http.Client
	baseURL    string
	tokens     port.TokenSource
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	service    string
}

func newRest(httpClient *http.Client, baseURL, service string, tokens port.TokenSource, cb *gobreaker.CircuitBreaker, cfg resilience.Config) rest {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return rest{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		cb:         cb,
		cfg:        cfg,
		service:    service,
	}
}

// BreakerSuccess reports whether err must NOT count as a breaker failure.
// 4xx answers are business outcomes (duplicate email, unknown id), not outages.
func BreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var remote *domain.ErrRemote
	return errors.As(err, &remote) && remote.Status < http.StatusInternalServerError
}

// call executa fn dentro do breaker. idempotent habilita retry com backoff
// (nunca em 4xx). O erro devolvido já vem embrulhado em ErrExternalService.
func (r *rest) call(ctx context.Context, idempotent bool, fn func() error) error {
	_, err := r.cb.Execute(func() (any, error) {
		if !idempotent {
			return nil, fn()
		}
		return nil, resilience.RetryWithBackoff(ctx, r.cfg, func() error {
			err := fn()
			if err != nil && BreakerSuccess(err) {
				return resilience.Permanent(err)
			}
			return err
		})
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &domain.ErrCircuitOpen{Service: r.service}
	}
	return &domain.ErrExternalService{Service: r.service, Err: err}
}

// do envia uma requisição JSON e decodifica a resposta em out (quando não nil).
// 204 No Content devolve nil sem decodificar.
func (r *rest) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return resilience.Permanent(fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if r.tokens != nil {
		tok, err := r.tokens.Token(ctx)
		if err != nil {
			return resilience.Permanent(err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeRemoteError(resp.StatusCode, raw)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", r.service, err)
	}
	return nil
}

// decodeRemoteError extrai a mensagem do corpo: "mensaje", depois "error",
// depois texto puro; sem nada legível, "Error <status>".
func decodeRemoteError(status int, raw []byte) *domain.ErrRemote {
	msg := ""
	text := strings.TrimSpace(string(raw))
	if text != "" {
		var payload struct {
			Mensaje string `json:"mensaje"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			msg = text
		} else if payload.Mensaje != "" {
			msg = payload.Mensaje
		} else {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("Error %d", status)
	}
	return &domain.ErrRemote{Status: status, Message: msg}
}

// startSpan abre o span de uma operação de cliente.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attrs...)
	return ctx, span
}

// endSpan registra o erro (se houver) e fecha o span.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.UserMessage(err))
	}
	span.End()
}
