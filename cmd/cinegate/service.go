package main

import (
	"context"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/cinegate/cinegate/internal/config"
)

var serviceConfig = &service.Config{
	Name:        "cinegate",
	DisplayName: "cinegate",
	Description: "Membership-gated movie delivery bot for Telegram",
	Arguments:   []string{"service", "run"},
}

// program adapts the run loop to the service manager lifecycle.
type program struct {
	cfg    *config.Config
	cancel context.CancelFunc
	done   chan error
}

// Start implements service.Interface. Service managers expect Start to
// return promptly, so the run loop goes to a goroutine.
func (p *program) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		p.done <- runUntil(ctx, p.cfg)
	}()
	return nil
}

// Stop implements service.Interface.
func (p *program) Stop(service.Service) error {
	p.cancel()
	return <-p.done
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run or manage cinegate as a system service",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run under the service manager (invoked by the manager itself)",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			svc, err := service.New(&program{cfg: cfg}, serviceConfig)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	for _, action := range []string{"install", "uninstall", "start", "stop", "restart"} {
		cmd.AddCommand(controlCmd(action))
	}
	return cmd
}

func controlCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: fmt.Sprintf("%s the cinegate system service", action),
		RunE: func(_ *cobra.Command, _ []string) error {
			svc, err := service.New(&program{}, serviceConfig)
			if err != nil {
				return err
			}
			if err := service.Control(svc, action); err != nil {
				return err
			}
			fmt.Printf("service %s: done\n", action)
			return nil
		},
	}
}
