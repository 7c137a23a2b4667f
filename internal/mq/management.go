package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultManagementTimeout — потолок на один запрос к management API.
const defaultManagementTimeout = 5 * time.Second

// ManagementClient — клиент management API RabbitMQ.
//
// Контроллеру от брокера нужна единственная метрика: messages_ready —
// сообщения, лежащие в очереди и ещё не выданные потребителям.
// Сознательно не messages: unacked уже обрабатываются воркерами
// и не требуют дополнительных мощностей.
type ManagementClient struct {
	baseURL string
	vhost   string
	user    string
	pass    string
	httpc   *http.Client
}

// ManagementConfig — конфигурация клиента management API.
type ManagementConfig struct {
	// BaseURL — адрес management API, например http://localhost:15672.
	BaseURL string

	// VHost — виртуальный хост, в котором живут очереди.
	VHost string

	// User, Pass — учётные данные basic auth.
	User string
	Pass string

	// Timeout — потолок на запрос. По умолчанию 5 секунд.
	Timeout time.Duration
}

// NewManagementClient создаёт клиент management API.
func NewManagementClient(cfg ManagementConfig) *ManagementClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultManagementTimeout
	}

	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}

	return &ManagementClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		vhost:   vhost,
		user:    cfg.User,
		pass:    cfg.Pass,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// queueInfo — интересующая нас часть ответа GET /api/queues/{vhost}/{name}.
type queueInfo struct {
	MessagesReady int `json:"messages_ready"`
}

// ReadyCount возвращает число сообщений, готовых к доставке в очереди.
func (c *ManagementClient) ReadyCount(ctx context.Context, queue string) (int, error) {
	// Дефолтный vhost "/" кодируется как %2F
	endpoint := fmt.Sprintf("%s/api/queues/%s/%s",
		c.baseURL,
		url.PathEscape(c.vhost),
		url.PathEscape(queue),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build management request: %w", err)
	}
	req.SetBasicAuth(c.user, c.pass)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query queue %s: %w", queue, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("query queue %s: %w: %s", queue, ErrManagementStatus, resp.Status)
	}

	var info queueInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return 0, fmt.Errorf("decode queue info: %w", err)
	}

	if info.MessagesReady < 0 {
		return 0, nil
	}
	return info.MessagesReady, nil
}
