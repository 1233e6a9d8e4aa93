package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/domain"
)

func alerts(n int) []domain.SupplierAlert {
	out := make([]domain.SupplierAlert, n)
	for i := range out {
		out[i] = domain.SupplierAlert{
			ID:        int64(i + 1),
			SKU:       "SKU",
			RealPrice: decimal.NewFromInt(100),
			Kind:      domain.AlertPrice,
			CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestSubject(t *testing.T) {
	if got := Subject("Reporte", 1, 1, 5, 5); got != "Reporte - 5 filas" {
		t.Fatalf("single part subject = %q", got)
	}
	if got := Subject("Reporte", 2, 3, 2000, 4500); got != "Reporte (parte 2/3) - 2000 filas" {
		t.Fatalf("split subject = %q", got)
	}
}

func TestCompose_Chunks(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	msgs, err := Compose(alerts(5), "Reporte", 2, now)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[2].Subject != "Reporte (parte 3/3) - 1 filas" || len(msgs[2].IDs) != 1 || msgs[2].IDs[0] != 5 {
		t.Fatalf("unexpected last message %+v", msgs[2].Subject)
	}
	if !strings.Contains(msgs[0].HTML, "2024-05-02 09:30:00") || strings.Count(msgs[0].HTML, "<tr>") != 3 {
		t.Fatalf("unexpected html %s", msgs[0].HTML)
	}
}

func TestCompose_EscapesHTML(t *testing.T) {
	rows := alerts(1)
	rows[0].Description = `<script>alert("x")</script>`
	msgs, err := Compose(rows, "Reporte", 0, time.Now())
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if strings.Contains(msgs[0].HTML, "<script>") {
		t.Fatal("description must be escaped")
	}
	if msgs[0].Subject != "Reporte - 1 filas" {
		t.Fatalf("unexpected subject %q", msgs[0].Subject)
	}
}

func TestCompose_Empty(t *testing.T) {
	msgs, err := Compose(nil, "Reporte", 10, time.Now())
	if err != nil || msgs != nil {
		t.Fatalf("expected nothing, got %v %v", msgs, err)
	}
}

func TestSend_NoRecipients(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "localhost", Port: 25, From: "bot@example.com"})
	err := s.Send(context.Background(), Message{Subject: "x", HTML: "<p>x</p>"})
	if !errors.Is(err, domain.ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestMessage_Headers(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{From: "bot@example.com", To: []string{"a@example.com", "b@example.com"}})
	m, err := s.message(Message{Subject: "Reporte - 1 filas", HTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("message error: %v", err)
	}
	if got := m.GetToString(); len(got) != 2 {
		t.Fatalf("unexpected recipients %v", got)
	}
}
