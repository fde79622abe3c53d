package domain_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
)

func TestUserMessage(t *testing.T) {
	dialErr := &url.Error{Op: "Post", URL: "http://10.0.0.7:6012/customers", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"remote message", &domain.ErrExternalService{Service: "directory", Err: &domain.ErrRemote{Status: 404, Message: "Cliente no encontrado"}}, "Cliente no encontrado"},
		{"circuit open", &domain.ErrCircuitOpen{Service: "strategy"}, "servicio strategy no disponible temporalmente"},
		{"transport error", &domain.ErrExternalService{Service: "directory", Err: dialErr}, "servicio directory no disponible"},
		{"deadline", &domain.ErrExternalService{Service: "decision", Err: fmt.Errorf("post: %w", context.DeadlineExceeded)}, "servicio decision no disponible"},
		{"bare cancel", context.Canceled, "servicio no disponible"},
		{"plain error", errors.New("connection refused"), "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.UserMessage(tt.err)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if strings.Contains(got, "http://") {
				t.Errorf("message leaks an address: %q", got)
			}
		})
	}
}
