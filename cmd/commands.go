package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/examiner-backend/internal/app"
	"github.com/yungbote/examiner-backend/internal/data/db"
	types "github.com/yungbote/examiner-backend/internal/domain"
	"github.com/yungbote/examiner-backend/internal/http"
)

var (
	gradeStrategy string
	skipMigrate   bool

	rootCmd = &cobra.Command{
		Use:           "examiner",
		Short:         "Grades free-text student answers against reference answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the grading HTTP API",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the grading schema",
		RunE:  runMigrate,
	}

	gradeCmd = &cobra.Command{
		Use:   "grade <question_id> <student_id>",
		Short: "Run one grading workflow and print the result as JSON",
		Args:  cobra.ExactArgs(2),
		RunE:  runGrade,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on startup")
	gradeCmd.Flags().StringVar(&gradeStrategy, "strategy", "", "chain_of_thought or step_by_step (default from GRADING_DEFAULT_STRATEGY)")

	rootCmd.AddCommand(serveCmd, migrateCmd, gradeCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, log, skipMigrate)
	if err != nil {
		log.Error("App init failed", "error", err)
		log.Sync()
		return err
	}
	defer a.Close()
	a.Start()

	addr := ":" + a.Cfg.Port
	log.Info("Server listening", "addr", addr)
	srv := &http.Server{Engine: a.Router}
	if err := srv.Run(ctx, addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		return err
	}
	log.Info("Schema migrated")
	return nil
}

func runGrade(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, log, true)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()

	resp, err := a.Services.Workflow.CompleteGradingWorkflow(ctx, args[0], args[1], types.Strategy(gradeStrategy))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
