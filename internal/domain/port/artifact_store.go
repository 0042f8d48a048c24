package port

import "context"

// ArtifactStore временные файлы загрузок и итоговое размеченное изображение
type ArtifactStore interface {
	// StageUpload сохраняет байты во временный файл. cleanup удаляет файл и безопасен для повторного вызова.
	StageUpload(ctx context.Context, data []byte, ext string) (path string, cleanup func(), err error)

	// SaveOutput заменяет итоговое изображение и возвращает его путь
	SaveOutput(ctx context.Context, jpeg []byte) (string, error)

	// OpenOutput читает итоговое изображение, entity.ErrNoArtifact если его ещё нет
	OpenOutput(ctx context.Context) ([]byte, error)
}
