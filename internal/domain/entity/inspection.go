package entity

import "time"

// Outcome итог обработки одной загрузки
type Outcome string

const (
	OutcomeDamageDetected Outcome = "damage_detected"
	OutcomeNoDamage       Outcome = "no_damage"
)

// InspectionRecord запись журнала проверок. Сами детекции не сохраняются, только сводка.
type InspectionRecord struct {
	ID            int64         `json:"id"`
	SessionID     string        `json:"session_id"`
	CreatedAt     time.Time     `json:"created_at"`
	Outcome       Outcome       `json:"outcome"`
	Total         int           `json:"total"`
	Counts        SummaryCounts `json:"counts"`
	UnknownLabels []string      `json:"unknown_labels,omitempty"`
}
