package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apistation "github.com/kilianp07/chargestation/api/station"
	"github.com/kilianp07/chargestation/config"
	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	coremetrics "github.com/kilianp07/chargestation/core/metrics"
	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/monitoring"
	corenotify "github.com/kilianp07/chargestation/core/notify"
	"github.com/kilianp07/chargestation/core/registry"
	"github.com/kilianp07/chargestation/core/station"
	"github.com/kilianp07/chargestation/infra/logger"
	"github.com/kilianp07/chargestation/infra/metrics"
	inframon "github.com/kilianp07/chargestation/infra/monitoring"
	_ "github.com/kilianp07/chargestation/infra/notify" // registers mqtt and redis notifiers
	"github.com/kilianp07/chargestation/internal/eventbus"
)

// Service owns the station network and the components around it.
type Service struct {
	Network  *station.Network
	Bus      *eventbus.Bus[events.Event]
	Store    journal.LogStore
	notifier corenotify.NotificationSink
	sink     coremetrics.MetricsSink
	server   *http.Server
	promAddr string
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")
	corenotify.Log = logger.New("notifier")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	monitoring.Init(mon)

	notifier, err := newNotifier(cfg.Notify)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		closeNotifier(notifier)
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := journal.New(cfg.Journal)
	if err != nil {
		closeNotifier(notifier)
		return nil, fmt.Errorf("journal: %w", err)
	}
	svc := &Service{
		Bus:      eventbus.New[events.Event](),
		Store:    store,
		notifier: notifier,
		sink:     sink,
		promAddr: cfg.Metrics.PrometheusAddr,
		log:      logg,
	}

	network, err := svc.buildNetwork(cfg)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	svc.Network = network

	handler := apistation.NewHandler(network, store, cfg.API.Token, logger.New("api"))
	svc.server = &http.Server{Addr: cfg.API.Addr, Handler: handler.Router(), ReadHeaderTimeout: 5 * time.Second}
	return svc, nil
}

func (s *Service) buildNetwork(cfg *config.Config) (*station.Network, error) {
	specs, err := cfg.Station.Stations()
	if err != nil {
		return nil, fmt.Errorf("station: %w", err)
	}
	weather := model.NewWeatherSignal(cfg.InitialWeather())
	stations := make([]*station.Station, 0, len(specs))
	for _, sc := range specs {
		reg := registry.NewMemoryStore(cfg.Station.MaxUsers, cfg.Station.MaxVehicles)
		st, err := station.New(sc, reg, weather, logger.New(fmt.Sprintf("station-%d", sc.ID)))
		if err != nil {
			return nil, err
		}
		st.SetNotifier(s.notifier)
		st.SetEventBus(s.Bus)
		st.SetLogStore(s.Store)
		stations = append(stations, st)
	}
	network, err := station.NewNetwork(weather, stations...)
	if err != nil {
		return nil, err
	}
	network.SetEventBus(s.Bus)
	s.log.Infof("%d station(s) ready, weather %s", len(stations), weather.Current())
	return network, nil
}

// Run starts the collectors and the API server and blocks until the context
// is cancelled or the server fails.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.Bus, s.sink)
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving API on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("api server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	defer monitoring.Flush(2 * time.Second)
	s.Bus.Close()
	closeNotifier(s.notifier)
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.Store.Close()
}

func newNotifier(cfg config.NotifyConfig) (corenotify.NotificationSink, error) {
	if len(cfg.Sinks) == 0 {
		return corenotify.LogNotifier{Log: corenotify.Log}, nil
	}
	return corenotify.NewNotifier(cfg.Sinks)
}

func closeNotifier(n corenotify.NotificationSink) {
	if c, ok := n.(corenotify.Closer); ok {
		_ = c.Close()
	}
}
