package advisory

import "wall-inspector/internal/domain/entity"

// Встроенные профили. en и id соответствуют английской и индонезийской версиям приложения.

var englishAdvisories = map[string]entity.Advisory{
	"crack": {
		Text:     "Crack detected. Repair it promptly to prevent further structural damage.",
		Severity: entity.SeverityError,
	},
	"wall_mold": {
		Text:     "Mold detected. Check the room humidity and clean the affected area.",
		Severity: entity.SeverityWarning,
	},
	"wall_corrosion": {
		Text:     "Corrosion detected. Treat the damaged surface as soon as possible.",
		Severity: entity.SeverityError,
	},
	"wall_deterioration": {
		Text:     "Deterioration detected. Consider renovating this area.",
		Severity: entity.SeverityWarning,
	},
	"wall_stain": {
		Text:     "Stain detected. Check for a source of moisture or a leak.",
		Severity: entity.SeverityInfo,
	},
}

var englishText = entity.UIText{
	Title:          "🧱 Wall Damage Detection",
	UploadPrompt:   "Upload a photo of the wall (jpg, jpeg, png)",
	UploadButton:   "Inspect",
	InputCaption:   "Input image",
	ResultCaption:  "Detection result",
	DetectedLine:   "✅ Detected: %s (confidence: %s)",
	NoDamage:       "✅ No damage detected.",
	InvalidImage:   "⚠️ The file is not a valid image. Please upload another photo.",
	Unsupported:    "⚠️ Unsupported file type. Allowed: jpg, jpeg, png.",
	Busy:           "⏳ The previous image is still being processed. Please wait.",
	DetectorFailed: "⚠️ Detection failed. Please try again later.",
	TableTitle:     "Detections",
	SummaryTitle:   "Summary",
	ChartTitle:     "Damage count by type",
	LabelColumn:    "Damage",
	ConfColumn:     "Confidence",
	CountColumn:    "Count",
	DownloadButton: "Download detection result",
	Processing:     "⏳ Processing image...",
	Start: `👋 Hi! I look for damage on photos of walls: cracks, mold, corrosion, deterioration and stains.

📸 Send me a photo of a wall and I will mark the damage and suggest what to do.

📋 Commands:
/check — inspect a wall
/history — recent inspections
/cancel — reset the current inspection
/help — help`,
	Help: `ℹ️ How to use:

1️⃣ Send a photo (or a jpg/png file) of the wall
2️⃣ Wait while the image is analysed
3️⃣ Get the list of damage with advice, a summary and the marked photo

💡 Tips:
• Shoot in good light
• Keep the damaged area in focus`,
	SendPhoto:      "📸 Please send a photo of the wall.",
	UnknownCommand: "❓ Unknown command. Use /help.",
	Cancelled:      "❌ Cancelled. Send a photo of the wall to start again.",
	HistoryTitle:   "🗂 Recent inspections:",
	HistoryEmpty:   "No inspections yet.",
	HistoryOff:     "History is not enabled.",
}

var indonesianAdvisories = map[string]entity.Advisory{
	"wall_crack": {
		Text:     "⚠️ Retak terdeteksi. Segera lakukan perbaikan untuk mencegah kerusakan lebih lanjut.",
		Severity: entity.SeverityError,
	},
	"wall_mold": {
		Text:     "⚠️ Jamur terdeteksi. Periksa kelembaban ruangan dan lakukan pembersihan.",
		Severity: entity.SeverityWarning,
	},
	"wall_corrosion": {
		Text:     "⚠️ Korosi terdeteksi. Segera lakukan perawatan pada permukaan yang rusak.",
		Severity: entity.SeverityError,
	},
	"wall_deterioration": {
		Text:     "⚠️ Deteriorasi terdeteksi. Pertimbangkan renovasi pada area ini.",
		Severity: entity.SeverityWarning,
	},
	"wall_stain": {
		Text:     "⚠️ Noda terdeteksi. Periksa sumber kelembaban atau kebocoran.",
		Severity: entity.SeverityInfo,
	},
}

var indonesianText = entity.UIText{
	Title:          "🧱 Deteksi Kerusakan Dinding (YOLOv8)",
	UploadPrompt:   "Upload gambar dinding (jpg, jpeg, png)",
	UploadButton:   "Deteksi",
	InputCaption:   "Gambar Input",
	ResultCaption:  "Hasil Deteksi",
	DetectedLine:   "✅ Deteksi: %s (confidence: %s)",
	NoDamage:       "✅ Tidak ada kerusakan terdeteksi.",
	InvalidImage:   "⚠️ File bukan gambar yang valid. Silakan upload foto lain.",
	Unsupported:    "⚠️ Jenis file tidak didukung. Gunakan jpg, jpeg, atau png.",
	Busy:           "⏳ Gambar sebelumnya masih diproses. Mohon tunggu.",
	DetectorFailed: "⚠️ Deteksi gagal. Silakan coba lagi nanti.",
	TableTitle:     "Hasil Deteksi",
	SummaryTitle:   "Ringkasan",
	ChartTitle:     "Jumlah kerusakan per jenis",
	LabelColumn:    "Kerusakan",
	ConfColumn:     "Confidence",
	CountColumn:    "Jumlah",
	DownloadButton: "Unduh hasil deteksi",
	Processing:     "⏳ Memproses gambar...",
	Start: `👋 Halo! Saya mendeteksi kerusakan dinding: retak, jamur, korosi, deteriorasi, dan noda.

📸 Kirim foto dinding dan saya akan menandai kerusakannya.

📋 Perintah:
/check — periksa dinding
/history — riwayat pemeriksaan
/cancel — batalkan pemeriksaan
/help — bantuan`,
	Help: `ℹ️ Cara menggunakan:

1️⃣ Kirim foto (atau file jpg/png) dinding
2️⃣ Tunggu gambar dianalisis
3️⃣ Terima daftar kerusakan, saran, ringkasan, dan foto bertanda`,
	SendPhoto:      "📸 Silakan kirim foto dinding.",
	UnknownCommand: "❓ Perintah tidak dikenal. Gunakan /help.",
	Cancelled:      "❌ Dibatalkan. Kirim foto dinding untuk mulai lagi.",
	HistoryTitle:   "🗂 Riwayat pemeriksaan:",
	HistoryEmpty:   "Belum ada pemeriksaan.",
	HistoryOff:     "Riwayat tidak diaktifkan.",
}

type builtin struct {
	advisories   map[string]entity.Advisory
	text         entity.UIText
	downloadName string
}

var builtins = map[string]builtin{
	"en": {advisories: englishAdvisories, text: englishText, downloadName: "detected_wall_damage.jpg"},
	"id": {advisories: indonesianAdvisories, text: indonesianText, downloadName: "deteksi_kerusakan_dinding.jpg"},
}

// Locales список встроенных профилей
func Locales() []string {
	return []string{"en", "id"}
}
