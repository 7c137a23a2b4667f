package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/shaiso/conveyor/internal/domain"
)

// Client — адаптер Docker Engine API для управления контейнерами воркеров.
type Client struct {
	cli    *client.Client
	logger *slog.Logger
}

// NewClient создаёт адаптер. Параметры подключения берутся из окружения
// (DOCKER_HOST и родственные), версия API согласуется с демоном.
func NewClient(logger *slog.Logger) (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{cli: cli, logger: logger}, nil
}

// ListByLabel возвращает контейнеры, несущие метку key=value.
// Включая остановленные: контроллер подчищает их отдельным проходом.
func (c *Client) ListByLabel(ctx context.Context, label string) ([]domain.ManagedContainer, error) {
	args := filters.NewArgs(filters.Arg("label", label))

	list, err := c.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: args,
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	result := make([]domain.ManagedContainer, 0, len(list))
	for _, ct := range list {
		name := ""
		if len(ct.Names) > 0 {
			name = strings.TrimPrefix(ct.Names[0], "/")
		}

		result = append(result, domain.ManagedContainer{
			ID:        ct.ID,
			Name:      name,
			Image:     ct.Image,
			CreatedAt: time.Unix(ct.Created, 0),
			State:     mapState(ct.State),
		})
	}
	return result, nil
}

// mapState приводит состояние Docker к доменному.
func mapState(s string) domain.ContainerState {
	switch s {
	case "created", "restarting":
		return domain.ContainerStateStarting
	case "running", "paused":
		return domain.ContainerStateRunning
	case "removing":
		return domain.ContainerStateStopping
	case "exited", "dead":
		return domain.ContainerStateStopped
	default:
		return domain.ContainerStateStopped
	}
}

// Start создаёт и запускает контейнер по спецификации.
// Возвращает ID запущенного контейнера.
func (c *Client) Start(ctx context.Context, spec domain.ContainerSpec) (string, error) {
	// Pull — best effort: образ воркера обычно собран локально,
	// и отсутствие его в registry не мешает создать контейнер.
	if reader, err := c.cli.ImagePull(ctx, spec.Image, types.ImagePullOptions{}); err != nil {
		c.logger.Debug("image pull skipped", "image", spec.Image, "error", err)
	} else {
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	cfg := &container.Config{
		Image:  spec.Image,
		Env:    spec.Env,
		Labels: spec.Labels,
	}

	var hostCfg *container.HostConfig
	if spec.Network != "" {
		hostCfg = &container.HostConfig{
			NetworkMode: container.NetworkMode(spec.Network),
		}
	}

	resp, err := c.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("create container %s: %w", spec.Name, err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("start container %s: %w", spec.Name, err)
	}

	return resp.ID, nil
}

// Stop останавливает контейнер, давая grace-период на дообработку
// текущего сообщения, и удаляет его.
func (c *Client) Stop(ctx context.Context, id string, grace time.Duration) error {
	seconds := int(grace.Seconds())

	if err := c.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &seconds}); err != nil {
		return fmt.Errorf("stop container %s: %w", shortID(id), err)
	}

	return c.Remove(ctx, id)
}

// Remove удаляет остановленный контейнер.
func (c *Client) Remove(ctx context.Context, id string) error {
	if err := c.cli.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
		return fmt.Errorf("remove container %s: %w", shortID(id), err)
	}
	return nil
}

// shortID усечённый ID для логов и сообщений об ошибках.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
