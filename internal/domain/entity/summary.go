package entity

import "sort"

// SummaryCounts число детекций по каждому классу
type SummaryCounts map[string]int

// SummaryRow строка сводной таблицы
type SummaryRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountLabels строит сводку по набору детекций.
func CountLabels(set DetectionSet) SummaryCounts {
	counts := make(SummaryCounts, len(set))
	for _, d := range set {
		counts[d.Label]++
	}
	return counts
}

// Total сумма по всем классам, всегда равна числу детекций
func (c SummaryCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Rows возвращает строки по убыванию количества, при равенстве по имени класса.
func (c SummaryCounts) Rows() []SummaryRow {
	rows := make([]SummaryRow, 0, len(c))
	for label, n := range c {
		rows = append(rows, SummaryRow{Label: label, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}
