package mocks

import (
	"context"
	"sync"
)

// MockMailer records confirmation codes instead of sending them.
type MockMailer struct {
	mu    sync.Mutex
	Sent  []SentMail
	Fail  error
	Calls int
}

// SentMail is a recorded confirmation-code delivery.
type SentMail struct {
	Email    string
	Username string
	Code     string
}

func (m *MockMailer) SendConfirmationCode(_ context.Context, toEmail, username, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Fail != nil {
		return m.Fail
	}
	m.Sent = append(m.Sent, SentMail{Email: toEmail, Username: username, Code: code})
	return nil
}

// LastCode returns the most recently sent code, or empty.
func (m *MockMailer) LastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1].Code
}
