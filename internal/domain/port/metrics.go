package port

import "time"

// PipelineMetrics метрики конвейера
type PipelineMetrics interface {
	ObserveUpload(outcome string)
	ObserveDetection(label string)
	ObserveUnknownLabel(label string)
	ObserveInference(d time.Duration)
}
