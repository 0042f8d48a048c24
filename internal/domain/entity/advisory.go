package entity

import (
	"fmt"
	"sort"
)

// Severity уровень важности рекомендации
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid сообщает, что уровень входит в известный набор
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Advisory текст рекомендации для класса повреждения
type Advisory struct {
	Text     string   `json:"text" yaml:"text"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// AdvisoryTable неизменяемое соответствие "класс -> рекомендация".
// Сравнение классов точное и чувствительное к регистру.
type AdvisoryTable struct {
	entries map[string]Advisory
}

// NewAdvisoryTable копирует записи и проверяет, что у каждой есть текст и корректный уровень.
func NewAdvisoryTable(entries map[string]Advisory) (AdvisoryTable, error) {
	copied := make(map[string]Advisory, len(entries))
	for label, adv := range entries {
		if label == "" {
			return AdvisoryTable{}, fmt.Errorf("advisory table: empty label")
		}
		if adv.Text == "" {
			return AdvisoryTable{}, fmt.Errorf("advisory table: label %q has no text", label)
		}
		if !adv.Severity.Valid() {
			return AdvisoryTable{}, fmt.Errorf("advisory table: label %q has invalid severity %q", label, adv.Severity)
		}
		copied[label] = adv
	}
	return AdvisoryTable{entries: copied}, nil
}

// Lookup ищет рекомендацию по классу
func (t AdvisoryTable) Lookup(label string) (Advisory, bool) {
	adv, ok := t.entries[label]
	return adv, ok
}

// Labels возвращает известные классы в алфавитном порядке
func (t AdvisoryTable) Labels() []string {
	labels := make([]string, 0, len(t.entries))
	for label := range t.entries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

func (t AdvisoryTable) Len() int {
	return len(t.entries)
}
