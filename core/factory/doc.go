// Package factory provides a small generic registry used to instantiate
// pluggable station components (notifiers, metrics sinks) from configuration.
// Components are declared by a type string and a map of raw settings; the
// registered factory decodes the settings into a typed struct.
//
//	reg := factory.NewRegistry[notify.NotificationSink]()
//	reg.Register("mqtt", func(conf map[string]any) (notify.NotificationSink, error) {
//	    var c mqtt.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return mqtt.NewNotifier(c)
//	})
package factory
