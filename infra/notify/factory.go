// Package notify provides networked notification sinks.
package notify

import (
	"context"

	"github.com/kilianp07/chargestation/core/factory"
	corenotify "github.com/kilianp07/chargestation/core/notify"
)

func init() {
	_ = corenotify.RegisterNotifier("mqtt", func(conf map[string]any) (corenotify.NotificationSink, error) {
		var c MQTTConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewMQTTNotifier(c)
	})
	_ = corenotify.RegisterNotifier("redis", func(conf map[string]any) (corenotify.NotificationSink, error) {
		var c RedisConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRedisNotifier(context.Background(), c)
	})
}
