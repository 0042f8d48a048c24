package advisory

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"wall-inspector/internal/domain/entity"
)

// File формат YAML-файла профиля. Незаполненные строки интерфейса берутся из встроенного профиля той же локали.
//
//	locale: en
//	download_name: detected_wall_damage.jpg
//	advisories:
//	  crack:
//	    text: Crack detected.
//	    severity: error
//	text:
//	  no_damage: No damage.
type File struct {
	Locale       string                     `yaml:"locale"`
	DownloadName string                     `yaml:"download_name"`
	Advisories   map[string]entity.Advisory `yaml:"advisories"`
	Text         entity.UIText              `yaml:"text"`
}

// Builtin возвращает встроенный профиль
func Builtin(locale string) (*entity.Profile, error) {
	b, ok := builtins[locale]
	if !ok {
		return nil, fmt.Errorf("unknown locale %q (available: %v)", locale, Locales())
	}
	table, err := entity.NewAdvisoryTable(b.advisories)
	if err != nil {
		return nil, err
	}
	return &entity.Profile{
		Locale:       locale,
		Advisories:   table,
		Text:         b.text,
		DownloadName: b.downloadName,
	}, nil
}

// Load возвращает профиль: встроенный для locale, либо из файла, если path не пустой.
func Load(locale, path string) (*entity.Profile, error) {
	if path == "" {
		return Builtin(locale)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read advisory file: %w", err)
	}
	return Parse(locale, data)
}

// Parse разбирает YAML профиля
func Parse(locale string, data []byte) (*entity.Profile, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse advisory file: %w", err)
	}
	if f.Locale != "" {
		locale = f.Locale
	}
	if len(f.Advisories) == 0 {
		return nil, fmt.Errorf("advisory file: no advisories")
	}

	table, err := entity.NewAdvisoryTable(f.Advisories)
	if err != nil {
		return nil, err
	}

	base, err := Builtin(locale)
	if err != nil {
		base, _ = Builtin("en")
	}

	profile := &entity.Profile{
		Locale:       locale,
		Advisories:   table,
		Text:         mergeText(base.Text, f.Text),
		DownloadName: base.DownloadName,
	}
	if f.DownloadName != "" {
		profile.DownloadName = f.DownloadName
	}
	return profile, nil
}

// mergeText заменяет строки base непустыми строками override
func mergeText(base, override entity.UIText) entity.UIText {
	dst := reflect.ValueOf(&base).Elem()
	src := reflect.ValueOf(override)
	for i := 0; i < src.NumField(); i++ {
		if s := src.Field(i).String(); s != "" {
			dst.Field(i).SetString(s)
		}
	}
	return base
}
