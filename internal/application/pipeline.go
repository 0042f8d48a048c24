package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// DefaultConfidenceThreshold порог уверенности по умолчанию
const DefaultConfidenceThreshold = 0.25

// UploadRequest входные данные одной загрузки
type UploadRequest struct {
	Filename string
	Data     []byte
}

// PipelineOptions параметры конвейера, задаются при запуске и не меняются
type PipelineOptions struct {
	Threshold          float64
	AcceptedExtensions []string
	MaxPixels          int
}

// Pipeline конвейер "изображение -> детекции -> рекомендации -> сводка -> размеченное изображение".
// Детектор и профиль неизменяемы после создания, поэтому конвейер можно вызывать из разных горутин.
type Pipeline struct {
	detector  port.DamageDetector
	artifacts port.ArtifactStore
	profile   *entity.Profile
	opts      PipelineOptions
	metrics   port.PipelineMetrics
	logger    *slog.Logger
}

// NewPipeline создаёт конвейер. metrics и logger могут быть nil.
func NewPipeline(detector port.DamageDetector, artifacts port.ArtifactStore, profile *entity.Profile, opts PipelineOptions, metrics port.PipelineMetrics, logger *slog.Logger) *Pipeline {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultConfidenceThreshold
	}
	if len(opts.AcceptedExtensions) == 0 {
		opts.AcceptedExtensions = []string{"jpg", "jpeg", "png"}
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		detector:  detector,
		artifacts: artifacts,
		profile:   profile,
		opts:      opts,
		metrics:   metrics,
		logger:    logger.With("component", "pipeline"),
	}
}

// Profile возвращает профиль, с которым создан конвейер
func (p *Pipeline) Profile() *entity.Profile {
	return p.profile
}

// HandleUpload обрабатывает одну загрузку от начала до конца.
// Временный файл загрузки удаляется при любом исходе.
func (p *Pipeline) HandleUpload(ctx context.Context, req UploadRequest) (*RenderModel, error) {
	if p.detector == nil {
		return nil, errors.New("detector is not configured")
	}

	upload, err := DecodeUpload(req.Filename, req.Data, p.opts.AcceptedExtensions, p.opts.MaxPixels)
	if err != nil {
		if errors.Is(err, entity.ErrUnsupportedFormat) {
			p.metrics.ObserveUpload("unsupported_format")
		} else {
			p.metrics.ObserveUpload("invalid_image")
		}
		return nil, err
	}

	path, cleanup, err := p.artifacts.StageUpload(ctx, upload.Data, extensionFor(upload.Format))
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer cleanup()
	upload.Path = path

	started := time.Now()
	set, err := p.detector.Predict(ctx, upload, p.opts.Threshold)
	p.metrics.ObserveInference(time.Since(started))
	if err != nil {
		p.metrics.ObserveUpload("detector_error")
		return nil, fmt.Errorf("%w: %w", entity.ErrDetectorFailed, err)
	}
	set = set.AboveThreshold(p.opts.Threshold)

	width, height := upload.Size()
	model := &RenderModel{
		Input: InputImage{
			Filename: upload.Filename,
			Format:   upload.Format,
			Width:    width,
			Height:   height,
			Data:     upload.Data,
		},
		Findings: []Finding{},
		Total:    len(set),
	}

	if set.Empty() {
		model.Outcome = entity.OutcomeNoDamage
		model.Message = p.profile.Text.NoDamage
		p.metrics.ObserveUpload(string(model.Outcome))
		p.logger.Info("no damage detected", slog.String("filename", upload.Filename))
		return model, nil
	}

	model.Outcome = entity.OutcomeDamageDetected
	model.Findings, model.UnknownLabels = p.advise(set)
	model.Table = make([]TableRow, 0, len(set))
	for _, d := range set {
		model.Table = append(model.Table, TableRow{Label: d.Label, Confidence: RoundConfidence(d.Confidence)})
	}
	counts := entity.CountLabels(set)
	model.Summary = counts.Rows()
	model.Chart = buildChart(model.Summary)

	annotated, err := p.detector.RenderWithBoxes(ctx, upload, set)
	if err != nil {
		p.metrics.ObserveUpload("detector_error")
		return nil, fmt.Errorf("%w: render boxes: %w", entity.ErrDetectorFailed, err)
	}
	outputPath, err := p.artifacts.SaveOutput(ctx, annotated)
	if err != nil {
		return nil, fmt.Errorf("save output: %w", err)
	}
	model.Annotated = annotated
	model.Download = &Download{
		Path:     outputPath,
		Filename: p.profile.DownloadName,
		MIMEType: MIMEJPEG,
	}

	p.metrics.ObserveUpload(string(model.Outcome))
	p.logger.Info("damage detected",
		slog.String("filename", upload.Filename),
		slog.Int("detections", len(set)),
		slog.Int("labels", len(counts)),
	)
	return model, nil
}

// advise сопоставляет детекции с таблицей рекомендаций.
// Классы без рекомендации показываются без текста и возвращаются отдельным списком.
func (p *Pipeline) advise(set entity.DetectionSet) ([]Finding, []string) {
	findings := make([]Finding, 0, len(set))
	var unknown []string
	seen := make(map[string]bool)
	for _, d := range set {
		p.metrics.ObserveDetection(d.Label)
		confText := FormatConfidence(d.Confidence)
		f := Finding{
			Label:          d.Label,
			Confidence:     d.Confidence,
			ConfidenceText: confText,
			Line:           fmt.Sprintf(p.profile.Text.DetectedLine, d.Label, confText),
		}
		if adv, ok := p.profile.Advisories.Lookup(d.Label); ok {
			adv := adv
			f.Advisory = &adv
		} else if !seen[d.Label] {
			seen[d.Label] = true
			unknown = append(unknown, d.Label)
			p.metrics.ObserveUnknownLabel(d.Label)
			p.logger.Warn("detector returned label without advisory",
				slog.String("label", d.Label),
				slog.String("locale", p.profile.Locale),
			)
		}
		findings = append(findings, f)
	}
	return findings, unknown
}

type noopMetrics struct{}

func (noopMetrics) ObserveUpload(string)           {}
func (noopMetrics) ObserveDetection(string)        {}
func (noopMetrics) ObserveUnknownLabel(string)     {}
func (noopMetrics) ObserveInference(time.Duration) {}
