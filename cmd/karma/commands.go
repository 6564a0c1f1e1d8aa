package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/karma-tracker/internal/api"
	"serotonyl.ru/karma-tracker/internal/app"
	"serotonyl.ru/karma-tracker/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "karma",
		Short:         "Бэкенд трекера кармы: хранилище, сервисы и команды для GUI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Конфигурация читается здесь только ради уровня логов;
			// приложение загрузит её само при первой команде.
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
				log.SetLevel(level)
			}
			return nil
		},
	}

	root.AddCommand(
		newServeCmd(),
		newInvokeCmd(),
		newCommandsCmd(),
		newMigrateCmd(),
		newMaintainCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	var maxInflight int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Обрабатывать команды GUI-оболочки из stdin (JSON-строки)",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Останавливаемся по Ctrl+C и по закрытию окна оболочки
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			defer closeApp(ctx)

			router := app.NewRouter(app.Default())
			log.Info("=== Бэкенд кармы запущен ===")
			err := router.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), maxInflight)
			log.Info("=== Бэкенд кармы остановлен ===")
			return err
		},
	}
	cmd.Flags().IntVar(&maxInflight, "max-inflight", 8, "сколько команд выполнять одновременно")
	return cmd
}

func newInvokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Выполнить одну команду и напечатать ответ",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer closeApp(ctx)

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}

			router := app.NewRouter(app.Default())
			result, err := router.Invoke(ctx, args[0], raw)

			resp := api.Response{OK: err == nil, Result: result}
			if err != nil && !errors.As(err, &resp.Error) {
				resp.Error = api.External(err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(resp); encErr != nil {
				return encErr
			}
			if err != nil {
				return fmt.Errorf("команда %s: %s", args[0], resp.Error.Kind)
			}
			return nil
		},
	}
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "Список команд, доступных GUI-оболочке",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Роутеру не нужна база, пока команды не вызываются
			for _, name := range app.NewRouter(app.Default()).Commands() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Создать базу данных и применить миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.Get(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Storage.Created() {
				fmt.Fprintln(cmd.OutOrStdout(), "schema created")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			}
			return nil
		},
	}
}

func newMaintainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Выполнить обслуживание базы данных один раз",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := app.Get(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Storage.Maintain(ctx)
		},
	}
}

// closeApp закрывает приложение, если оно успело собраться.
func closeApp(ctx context.Context) {
	if !app.Default().Loaded() {
		return
	}
	a, err := app.Get(ctx)
	if err != nil {
		return
	}
	if err := a.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия хранилища")
	}
}
