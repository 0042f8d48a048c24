package entity

// UIText локализованные строки интерфейса (веб-страница и бот)
type UIText struct {
	Title          string `yaml:"title"`
	UploadPrompt   string `yaml:"upload_prompt"`
	UploadButton   string `yaml:"upload_button"`
	InputCaption   string `yaml:"input_caption"`
	ResultCaption  string `yaml:"result_caption"`
	DetectedLine   string `yaml:"detected_line"` // формат: класс, уверенность
	NoDamage       string `yaml:"no_damage"`
	InvalidImage   string `yaml:"invalid_image"`
	Unsupported    string `yaml:"unsupported"`
	Busy           string `yaml:"busy"`
	DetectorFailed string `yaml:"detector_failed"`
	TableTitle     string `yaml:"table_title"`
	SummaryTitle   string `yaml:"summary_title"`
	ChartTitle     string `yaml:"chart_title"`
	LabelColumn    string `yaml:"label_column"`
	ConfColumn     string `yaml:"confidence_column"`
	CountColumn    string `yaml:"count_column"`
	DownloadButton string `yaml:"download_button"`
	Processing     string `yaml:"processing"`
	Start          string `yaml:"start"`
	Help           string `yaml:"help"`
	SendPhoto      string `yaml:"send_photo"`
	UnknownCommand string `yaml:"unknown_command"`
	Cancelled      string `yaml:"cancelled"`
	HistoryTitle   string `yaml:"history_title"`
	HistoryEmpty   string `yaml:"history_empty"`
	HistoryOff     string `yaml:"history_off"`
}

// Profile набор классов с рекомендациями и локализованным текстом.
// Разные версии приложения отличаются только профилем.
type Profile struct {
	Locale       string
	Advisories   AdvisoryTable
	Text         UIText
	DownloadName string
}
