package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/shaiso/conveyor/internal/config"
	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/mq"
)

// NewQueueCmd создаёт группу команд для работы с очередями брокера.
func NewQueueCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect broker queues",
	}

	cmd.AddCommand(
		newQueueDepthCmd(outputFn),
		newQueuePeekDLQCmd(outputFn),
	)

	return cmd
}

func newQueueDepthCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "depth",
		Short: "Show ready-message counts of the work and dead-letter queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			broker, err := config.LoadBroker()
			if err != nil {
				return err
			}

			mgmt := mq.NewManagementClient(mq.ManagementConfig{
				BaseURL: broker.ManagementURL,
				VHost:   broker.VHost,
				User:    broker.ManagementUser,
				Pass:    broker.ManagementPass,
			})

			type depthRow struct {
				Queue string `json:"queue"`
				Ready int    `json:"ready"`
			}

			var data []depthRow
			for _, q := range []string{broker.Queue, broker.DeadLetterQueue} {
				ready, err := mgmt.ReadyCount(cmd.Context(), q)
				if err != nil {
					return fmt.Errorf("queue %s: %w", q, err)
				}
				data = append(data, depthRow{Queue: q, Ready: ready})
			}

			headers := []string{"QUEUE", "READY"}
			rows := make([][]string, len(data))
			for i, d := range data {
				rows[i] = []string{d.Queue, strconv.Itoa(d.Ready)}
			}

			out.Print(headers, rows, data)
			return nil
		},
	}
}

func newQueuePeekDLQCmd(outputFn func() *Output) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "peek-dlq",
		Short: "Show dead-letter records without consuming them",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			broker, err := config.LoadBroker()
			if err != nil {
				return err
			}

			conn, err := mq.NewConnection(broker.URL, discardLogger())
			if err != nil {
				return err
			}
			defer conn.Close()

			type dlqRow struct {
				TraceID    string `json:"trace_id"`
				Blob       string `json:"blob"`
				RetryCount int    `json:"retry_count"`
				ErrorKind  string `json:"error_kind"`
				Error      string `json:"error"`
				FailedAt   string `json:"failed_at"`
			}

			var data []dlqRow
			err = conn.WithChannel(cmd.Context(), func(ch *amqp.Channel) error {
				var lastTag uint64
				var fetched bool

				for i := 0; i < count; i++ {
					d, ok, err := ch.Get(broker.DeadLetterQueue, false)
					if err != nil {
						return fmt.Errorf("get from %s: %w", broker.DeadLetterQueue, err)
					}
					if !ok {
						break
					}
					lastTag = d.DeliveryTag
					fetched = true

					var rec domain.DeadLetterRecord
					if err := json.Unmarshal(d.Body, &rec); err != nil {
						data = append(data, dlqRow{Error: fmt.Sprintf("unparseable record: %v", err)})
						continue
					}

					data = append(data, dlqRow{
						TraceID:    rec.TraceID,
						Blob:       rec.Item.SourcePath(),
						RetryCount: rec.RetryCount,
						ErrorKind:  rec.ErrorKind,
						Error:      rec.Error,
						FailedAt:   rec.FailedAt.Format(time.RFC3339),
					})
				}

				// Всё просмотренное возвращается в очередь: peek не изымает
				if fetched {
					if err := ch.Nack(lastTag, true, true); err != nil {
						return fmt.Errorf("requeue peeked records: %w", err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			if len(data) == 0 {
				out.Success("Dead-letter queue is empty")
				if out.jsonMode {
					out.JSON([]dlqRow{})
				}
				return nil
			}

			headers := []string{"TRACE_ID", "BLOB", "RETRIES", "KIND", "FAILED_AT", "ERROR"}
			rows := make([][]string, len(data))
			for i, d := range data {
				rows[i] = []string{
					d.TraceID,
					d.Blob,
					strconv.Itoa(d.RetryCount),
					d.ErrorKind,
					d.FailedAt,
					clip(d.Error, 60),
				}
			}

			out.Print(headers, rows, data)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "Maximum number of records to show")

	return cmd
}

// clip обрезает длинный текст для табличного вывода.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
