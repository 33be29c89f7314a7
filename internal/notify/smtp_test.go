package notify

import (
	"context"
	"testing"
)

func TestNewSMTPValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		wantErr bool
	}{
		{name: "valid", cfg: SMTPConfig{Host: "smtp.example.com", Sender: "watch@example.com"}},
		{name: "missing host", cfg: SMTPConfig{Sender: "watch@example.com"}, wantErr: true},
		{name: "missing sender", cfg: SMTPConfig{Host: "smtp.example.com"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSMTP(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSMTP() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendRequiresRecipients(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Sender: "watch@example.com"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}

	err = s.Send(context.Background(), Notification{Subject: "x", Body: "y"})
	if err == nil {
		t.Fatal("expected error for empty recipient list")
	}
}

func TestCloseWithoutDial(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "smtp.example.com", Sender: "watch@example.com"})
	if err != nil {
		t.Fatalf("NewSMTP: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close before any send: %v", err)
	}
}
