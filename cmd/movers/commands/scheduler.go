package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/internal/scheduler"
	"github.com/wonny/movers/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Starts the scheduler daemon or manages its jobs.

Registered jobs:
  daily_ingestion - Tue-Sat 06:00 UTC, ingests the prior trading day

Example:
  go run ./cmd/movers scheduler start
  go run ./cmd/movers scheduler list
  go run ./cmd/movers scheduler run daily_ingestion`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler wires the scheduler with all jobs
func initScheduler(app *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(app.log)

	ingestionJob := jobs.NewIngestionJob(app.aggregator, app.cfg, app.log)
	if err := sched.AddJob(ingestionJob); err != nil {
		return nil, fmt.Errorf("add ingestion job: %w", err)
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Movers Scheduler ===")

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return err
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	available := []scheduler.Job{
		jobs.NewIngestionJob(app.aggregator, app.cfg, app.log),
	}

	for _, job := range available {
		if job.Name() != jobName {
			continue
		}
		fmt.Printf("Running job %s...\n", jobName)
		start := time.Now()
		if err := job.Run(context.Background()); err != nil {
			return fmt.Errorf("job %s failed: %w", jobName, err)
		}
		fmt.Printf("✅ Job %s completed in %s\n", jobName, time.Since(start))
		return nil
	}

	return fmt.Errorf("job %s not found", jobName)
}
