package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"PriceSentinel/internal/model"
	"PriceSentinel/internal/monitor"
	"PriceSentinel/internal/scheduler"
	"PriceSentinel/internal/store"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic price check and the Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	log.Println("[INFO] PriceSentinel starting...")
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Printf("[INFO] data source: %s", a.monitor.Fetcher.Name())

	states, err := scheduler.OpenStateStore(a.cfg.Schedule.StateFile)
	if err != nil {
		return fmt.Errorf("open job state: %w", err)
	}
	sched := scheduler.NewScheduler(ctx, states)
	job := a.cfg.Schedule.JobName
	if _, err := sched.Register(job, a.cfg.Schedule.Period, func(ctx context.Context) model.Outcome {
		return a.monitor.Run(ctx, model.TriggerScheduled).Outcome
	}); err != nil {
		return fmt.Errorf("register %s: %w", job, err)
	}
	sched.Start()
	defer sched.Stop()

	go watchProducts(ctx, a.store)

	if a.telegram != nil {
		cmds := &monitor.Commands{Monitor: a.monitor, RunNow: func() error { return sched.RunNow(job) }}
		go a.telegram.StartPolling(ctx, cmds.Handle)
		log.Println("[INFO] Telegram polling started")
	}

	if a.cfg.Schedule.RunOnStart {
		log.Printf("[INFO] run_on_start enabled, executing %s now", job)
		go func() {
			if err := sched.RunNow(job); err != nil {
				log.Printf("[ERROR] run on start: %v", err)
			}
		}()
	}

	log.Println("[INFO] PriceSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}

// watchProducts logs the tracked set whenever it changes.
func watchProducts(ctx context.Context, st store.Store) {
	updates, err := st.Subscribe(ctx)
	if err != nil {
		log.Printf("[WARN] product watch unavailable: %v", err)
		return
	}
	for products := range updates {
		log.Printf("[INFO] tracking %d product(s)", len(products))
	}
}

