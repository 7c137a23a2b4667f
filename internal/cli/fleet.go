package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/conveyor/internal/config"
	"github.com/shaiso/conveyor/internal/domain"
	"github.com/shaiso/conveyor/internal/runtime"
	"github.com/shaiso/conveyor/internal/scaler"
)

// NewFleetCmd создаёт группу команд для осмотра управляемых контейнеров.
func NewFleetCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Inspect managed worker containers",
	}

	cmd.AddCommand(newFleetListCmd(outputFn))

	return cmd
}

func newFleetListCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers carrying the ownership label",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			cfg, err := config.LoadScaler()
			if err != nil {
				return err
			}

			rt, err := runtime.NewClient(discardLogger())
			if err != nil {
				return err
			}

			containers, err := rt.ListByLabel(cmd.Context(),
				scaler.LabelManagedBy+"="+cfg.OwnershipLabel)
			if err != nil {
				return err
			}
			domain.SortOldestFirst(containers)

			headers := []string{"ID", "NAME", "IMAGE", "STATE", "AGE"}
			rows := make([][]string, len(containers))
			for i, ct := range containers {
				id := ct.ID
				if len(id) > 12 {
					id = id[:12]
				}
				rows[i] = []string{
					id,
					ct.Name,
					ct.Image,
					string(ct.State),
					time.Since(ct.CreatedAt).Round(time.Second).String(),
				}
			}

			out.Print(headers, rows, containers)
			return nil
		},
	}
}
