package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	azb "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// copyPollInterval — пауза между опросами статуса server-side копии.
const copyPollInterval = 200 * time.Millisecond

// Store — адаптер блоб-хранилища.
//
// Работает с одним контейнером, все пути относительны ему.
// Перенос реализован как server-side копия плюс удаление источника:
// содержимое блоба не проходит через процесс.
type Store struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
}

// Config — конфигурация Store.
type Config struct {
	// ConnectionString — строка подключения к аккаунту хранилища.
	ConnectionString string

	// Container — рабочий контейнер.
	Container string

	// Logger — опционален, по умолчанию slog.Default().
	Logger *slog.Logger
}

// NewStore создаёт адаптер хранилища.
func NewStore(cfg Config) (*Store, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		client:    client,
		container: cfg.Container,
		logger:    logger,
	}, nil
}

// Container возвращает имя рабочего контейнера.
func (s *Store) Container() string {
	return s.container
}

// Move переносит блоб src в dest внутри рабочего контейнера.
//
// Операция идемпотентна относительно идентичности блоба:
//   - dest уже существует с тем же содержимым — источник удаляется, успех;
//   - dest существует с другим содержимым — ErrConflict, перманентно;
//   - src отсутствует, dest существует — перенос уже завершён ранее, успех;
//   - src отсутствует, dest отсутствует — ErrNotFound, перманентно.
//
// Все прочие ошибки считаются transient и отдаются вызывающему как есть.
func (s *Store) Move(ctx context.Context, src, dest string) error {
	cc := s.client.ServiceClient().NewContainerClient(s.container)
	srcBlob := cc.NewBlobClient(src)
	destBlob := cc.NewBlobClient(dest)

	srcProps, err := srcBlob.GetProperties(ctx, nil)
	if err != nil {
		if !bloberror.HasCode(err, bloberror.BlobNotFound) {
			return fmt.Errorf("source properties %s: %w", src, err)
		}
		// Источника нет. Если цель на месте — перенос уже случился.
		if _, derr := destBlob.GetProperties(ctx, nil); derr == nil {
			s.logger.Debug("move already completed", "src", src, "dest", dest)
			return nil
		} else if !bloberror.HasCode(derr, bloberror.BlobNotFound) {
			return fmt.Errorf("destination properties %s: %w", dest, derr)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, src)
	}

	destProps, err := destBlob.GetProperties(ctx, nil)
	switch {
	case err == nil:
		if !contentMatches(srcProps.ContentMD5, destProps.ContentMD5, srcProps.ContentLength, destProps.ContentLength) {
			return fmt.Errorf("%w: %s", ErrConflict, dest)
		}
		// Копия уже на месте, осталось убрать источник
		return s.deleteSource(ctx, srcBlob, src)

	case !bloberror.HasCode(err, bloberror.BlobNotFound):
		return fmt.Errorf("destination properties %s: %w", dest, err)
	}

	if err := s.copy(ctx, srcBlob, destBlob); err != nil {
		return err
	}
	return s.deleteSource(ctx, srcBlob, src)
}

// copy выполняет server-side копию и дожидается её завершения.
// Внутри одного аккаунта копия обычно завершается синхронно,
// но контракт API асинхронный.
func (s *Store) copy(ctx context.Context, src, dest *azb.Client) error {
	resp, err := dest.StartCopyFromURL(ctx, src.URL(), nil)
	if err != nil {
		return fmt.Errorf("start copy: %w", err)
	}

	status := azb.CopyStatusTypeSuccess
	if resp.CopyStatus != nil {
		status = *resp.CopyStatus
	}

	for status == azb.CopyStatusTypePending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(copyPollInterval):
		}

		props, err := dest.GetProperties(ctx, nil)
		if err != nil {
			return fmt.Errorf("poll copy status: %w", err)
		}
		if props.CopyStatus != nil {
			status = *props.CopyStatus
		}
	}

	if status != azb.CopyStatusTypeSuccess {
		return fmt.Errorf("%w: copy finished with status %s", ErrCopyFailed, status)
	}
	return nil
}

// deleteSource удаляет исходный блоб. Отсутствие источника не ошибка:
// его мог убрать параллельный обработчик того же события.
func (s *Store) deleteSource(ctx context.Context, src *azb.Client, name string) error {
	if _, err := src.Delete(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete source %s: %w", name, err)
	}
	return nil
}

// contentMatches сравнивает содержимое блобов по ContentMD5,
// а при его отсутствии — по длине. Хранилище считает MD5 для блобов,
// загруженных целиком, чего для нашего трафика достаточно.
func contentMatches(srcMD5, destMD5 []byte, srcLen, destLen *int64) bool {
	if len(srcMD5) > 0 && len(destMD5) > 0 {
		return bytes.Equal(srcMD5, destMD5)
	}
	if srcLen != nil && destLen != nil {
		return *srcLen == *destLen
	}
	return false
}

// List возвращает имена блобов рабочего контейнера с данным префиксом.
// Пустой префикс — все блобы.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := &azblob.ListBlobsFlatOptions{}
	if prefix != "" {
		opts.Prefix = &prefix
	}

	var names []string
	pager := s.client.NewListBlobsFlatPager(s.container, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list container %s: %w", s.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

// EnsureContainer создаёт контейнер, если его ещё нет.
func (s *Store) EnsureContainer(ctx context.Context, name string) error {
	if _, err := s.client.CreateContainer(ctx, name, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			s.logger.Debug("container already exists", "container", name)
			return nil
		}
		return fmt.Errorf("create container %s: %w", name, err)
	}
	s.logger.Info("container created", "container", name)
	return nil
}

// Upload записывает данные в блоб рабочего контейнера, перезаписывая
// существующий.
func (s *Store) Upload(ctx context.Context, name string, data []byte) error {
	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, nil); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
