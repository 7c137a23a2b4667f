package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/conveyor/internal/blob"
	"github.com/shaiso/conveyor/internal/config"
)

// NewStoreCmd создаёт группу команд для управления блоб-хранилищем.
func NewStoreCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the blob store",
	}

	cmd.AddCommand(
		newStoreInitCmd(outputFn),
		newStoreListCmd(outputFn),
	)

	return cmd
}

func newStoreInitCmd(outputFn func() *Output) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create storage containers and optionally seed a sample blob",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			cfg, err := config.LoadInit()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.SeedSample = seed
			}

			store, err := blob.NewStore(blob.Config{
				ConnectionString: cfg.Store.ConnectionString,
				Container:        cfg.Store.Container,
				Logger:           discardLogger(),
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			for _, name := range cfg.Containers {
				if err := store.EnsureContainer(ctx, name); err != nil {
					return err
				}
				out.Success("Container ready: " + name)
			}

			if cfg.SeedSample {
				name := "sample/" + cfg.SampleFile
				data := fmt.Sprintf("Hello - seeded at %s\n", time.Now().UTC().Format(time.RFC3339))
				if err := store.Upload(ctx, name, []byte(data)); err != nil {
					return err
				}
				out.Success("Seeded blob: " + name)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", true, "Seed a sample blob into the work container")

	return cmd
}

func newStoreListCmd(outputFn func() *Output) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blobs in the work container",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			storeCfg, err := config.LoadStore()
			if err != nil {
				return err
			}

			store, err := blob.NewStore(blob.Config{
				ConnectionString: storeCfg.ConnectionString,
				Container:        storeCfg.Container,
				Logger:           discardLogger(),
			})
			if err != nil {
				return err
			}

			names, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			headers := []string{"BLOB"}
			rows := make([][]string, len(names))
			for i, n := range names {
				rows[i] = []string{n}
			}

			out.Print(headers, rows, names)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Only blobs with this prefix")

	return cmd
}
