// Conveyor CLI — операционная утилита конвейера.
//
// Использование:
//
//	conveyor [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	queue  Очереди брокера: глубина, просмотр dead-letter записей
//	fleet  Управляемые контейнеры воркеров
//	store  Блоб-хранилище: инициализация, листинг
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/conveyor/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor CLI — blob pipeline operations tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewQueueCmd(outputFn),
		cli.NewFleetCmd(outputFn),
		cli.NewStoreCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
