package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Speaker identifica o autor de uma mensagem do histórico.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerUser      Speaker = "user"
)

// ChatMessage é uma entrada imutável do histórico.
type ChatMessage struct {
	ID      string    `json:"id"`
	Speaker Speaker   `json:"speaker"`
	Lines   []string  `json:"lines"`
	At      time.Time `json:"at"`
}

// Transcript é o log append-only do wizard. A ordem de inserção é a ordem de exibição.
type Transcript struct {
	mu       sync.RWMutex
	messages []ChatMessage
	now      func() time.Time
}

// NewTranscript cria um histórico vazio.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// Append adiciona uma mensagem e devolve a cópia armazenada.
func (t *Transcript) Append(speaker Speaker, lines ...string) ChatMessage {
	msg := ChatMessage{
		ID:      uuid.NewString(),
		Speaker: speaker,
		Lines:   append([]string(nil), lines...),
		At:      t.now().UTC(),
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()

	return msg
}

// Len devolve o número de mensagens.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Messages devolve uma cópia do histórico completo.
func (t *Transcript) Messages() []ChatMessage {
	return t.Since(0)
}

// Since devolve as mensagens a partir da posição mark (usado para saber o que
// um dispatch acrescentou).
func (t *Transcript) Since(mark int) []ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if mark < 0 {
		mark = 0
	}
	if mark >= len(t.messages) {
		return []ChatMessage{}
	}
	out := make([]ChatMessage, len(t.messages)-mark)
	copy(out, t.messages[mark:])
	return out
}
