package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// DefaultSubject тема событий о завершённых проверках
const DefaultSubject = "inspections.completed"

// InspectionEvent полезная нагрузка события
type InspectionEvent struct {
	SessionID     string         `json:"session_id"`
	Outcome       string         `json:"outcome"`
	Total         int            `json:"total"`
	Counts        map[string]int `json:"counts"`
	UnknownLabels []string       `json:"unknown_labels,omitempty"`
	Timestamp     int64          `json:"timestamp"`
}

// NewInspectionEvent строит событие из записи журнала
func NewInspectionEvent(record *entity.InspectionRecord) InspectionEvent {
	counts := make(map[string]int, len(record.Counts))
	for label, n := range record.Counts {
		counts[label] = n
	}
	return InspectionEvent{
		SessionID:     record.SessionID,
		Outcome:       string(record.Outcome),
		Total:         record.Total,
		Counts:        counts,
		UnknownLabels: record.UnknownLabels,
		Timestamp:     record.CreatedAt.Unix(),
	}
}

// Publisher публикует события в NATS
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher подключается к NATS
func NewPublisher(natsURL, subject string, logger *slog.Logger) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("wall-inspector"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("connected to NATS", slog.String("url", natsURL), slog.String("subject", subject))

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}, nil
}

// PublishInspection публикует сводку проверки
func (p *Publisher) PublishInspection(ctx context.Context, record *entity.InspectionRecord) error {
	data, err := json.Marshal(NewInspectionEvent(record))
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published inspection event",
		slog.String("session", record.SessionID), slog.String("outcome", string(record.Outcome)))
	return nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

var _ port.InspectionPublisher = (*Publisher)(nil)
