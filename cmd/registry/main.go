package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"clinreg/internal/platform/config"
	"clinreg/internal/platform/logger"
	"clinreg/internal/platform/metrics"
	"clinreg/internal/registry"
)

// main wires high-level dependencies and dispatches one maintenance command.
// Business logic lives in the internal packages.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	m := metrics.New(prometheus.NewRegistry())
	svc := registry.NewFromConfig(cfg, log, m)

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "status"
	}

	ctx := context.Background()
	switch cmd {
	case "status":
		err = status(ctx, svc)
	case "check":
		err = check(ctx, svc)
	case "audit":
		err = auditLog(ctx, svc)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want status, check or audit)\n", cmd)
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

// status prints record counts per collection. Loading appointments also runs
// the expiration pass, so stale pending appointments are completed here.
func status(ctx context.Context, svc *registry.Service) error {
	patients, err := svc.Patients(ctx)
	if err != nil {
		return err
	}
	donors, err := svc.Donors(ctx)
	if err != nil {
		return err
	}
	appointments, err := svc.Appointments(ctx)
	if err != nil {
		return err
	}
	transplants, err := svc.Transplants(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("patients:     %d\n", len(patients))
	fmt.Printf("donors:       %d\n", len(donors))
	fmt.Printf("appointments: %d\n", len(appointments))
	fmt.Printf("transplants:  %d\n", len(transplants))
	return nil
}

// check re-validates every loaded record and prints the violations.
func check(ctx context.Context, svc *registry.Service) error {
	violations := 0
	report := func(kind, id string, err error) {
		if err != nil {
			violations++
			fmt.Printf("%s %s: %v\n", kind, id, err)
		}
	}

	patients, err := svc.Patients(ctx)
	if err != nil {
		return err
	}
	for _, p := range patients {
		report("patient", p.ID(), p.CheckInvariant())
	}
	donors, err := svc.Donors(ctx)
	if err != nil {
		return err
	}
	for _, d := range donors {
		report("donor", d.ID(), d.CheckInvariant())
	}
	appointments, err := svc.Appointments(ctx)
	if err != nil {
		return err
	}
	for _, a := range appointments {
		report("appointment", a.ID(), a.CheckInvariant())
	}
	transplants, err := svc.Transplants(ctx)
	if err != nil {
		return err
	}
	for _, t := range transplants {
		report("transplant", t.ID(), t.CheckInvariant())
	}

	if violations > 0 {
		return fmt.Errorf("%d invariant violations", violations)
	}
	fmt.Println("all records valid")
	return nil
}

// auditLog prints the recorded audit events, oldest first.
func auditLog(ctx context.Context, svc *registry.Service) error {
	events, err := svc.AuditTrail(ctx)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Printf("%s %s %s %s %s\n",
			e.At.Format("2006-01-02 15:04:05"), e.Action, e.Entity, e.EntityID, e.Detail)
	}
	return nil
}
