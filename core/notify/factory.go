package notify

import (
	"github.com/kilianp07/chargestation/core/factory"
	"github.com/kilianp07/chargestation/core/logger"
)

var sinkRegistry = factory.NewRegistry[NotificationSink]()

// Log is used by the "log" notifier. The application replaces it with its
// own logger before building sinks.
var Log logger.Logger = logger.NopLogger{}

func init() {
	_ = RegisterNotifier("nop", func(map[string]any) (NotificationSink, error) {
		return NopNotifier{}, nil
	})
	_ = RegisterNotifier("log", func(map[string]any) (NotificationSink, error) {
		return LogNotifier{Log: Log}, nil
	})
}

// RegisterNotifier adds a notification sink factory identified by name.
func RegisterNotifier(name string, f factory.Factory[NotificationSink]) error {
	return sinkRegistry.Register(name, f)
}

// Available lists the registered notifier types.
func Available() []string { return sinkRegistry.Names() }

// NewNotifier creates a NotificationSink from the provided configuration.
func NewNotifier(cfgs []factory.ModuleConfig) (NotificationSink, error) {
	if len(cfgs) == 0 {
		return NopNotifier{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]NotificationSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiNotifier(sinks...), nil
}
