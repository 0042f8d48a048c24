package entity

import "image"

// Upload загруженное изображение. Принадлежит одному вызову конвейера.
type Upload struct {
	Filename string      // исходное имя файла, может быть пустым
	Data     []byte      // исходные байты
	Path     string      // временный файл с копией байтов
	Format   string      // "jpeg" или "png"
	Image    image.Image // декодированное изображение с учётом EXIF-ориентации
}

// Size возвращает ширину и высоту изображения
func (u *Upload) Size() (width, height int) {
	if u.Image == nil {
		return 0, 0
	}
	b := u.Image.Bounds()
	return b.Dx(), b.Dy()
}
