package cli

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/use-go/gopro/internal/api"
	"github.com/use-go/gopro/internal/metrics"
)

var (
	exporterListen string
	serviceAction  string
)

// program runs the exporter under kardianos/service
type program struct {
	listen string
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(s service.Service) error {
	// Start must not block
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() {
		p.done <- runServer(ctx, p.listen, false)
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel != nil {
		p.cancel()
		return <-p.done
	}
	return nil
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Run the Prometheus exporter, optionally as a system service",
	Long: `Serve camera metrics on /metrics. The exporter can be installed as a
system service with --service install and controlled with start, stop and
uninstall.`,
	Example: `  goprousb exporter --listen :9100
  sudo goprousb exporter --service install --config /etc/goprousb.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := exporterListen
		if listen == "" {
			listen = viper.GetString("listen")
		}

		svcConfig := &service.Config{
			Name:        "goprousb-exporter",
			DisplayName: "GoPro USB Prometheus Exporter",
			Description: "Exposes GoPro camera status to Prometheus",
			Arguments:   []string{"exporter", "--listen", listen},
		}
		if cfgFile != "" {
			svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgFile)
		}
		for _, name := range cameraNames {
			svcConfig.Arguments = append(svcConfig.Arguments, "--camera", name)
		}

		prg := &program{listen: listen}
		svc, err := service.New(prg, svcConfig)
		if err != nil {
			return errors.Trace(err)
		}

		if serviceAction != "" {
			if err := service.Control(svc, serviceAction); err != nil {
				return errors.Annotatef(err, "failed to %s service", serviceAction)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service action '%s' completed successfully.\n", serviceAction)
			return nil
		}

		if service.Interactive() {
			return runServer(cmd.Context(), listen, false)
		}
		return errors.Trace(svc.Run())
	},
}

// runServer serves metrics, and the control API when withAPI is set, until
// ctx is cancelled
func runServer(ctx context.Context, listen string, withAPI bool) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(s.rig, metrics.DefaultScrapeTimeout, s.log))

	controlled := s.rig
	if !withAPI {
		controlled = nil
	}
	return api.New(controlled, registry, s.log).Start(ctx, listen)
}

func init() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&exporterListen, "listen", "", "Address to listen on (default listen from config)")
	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
