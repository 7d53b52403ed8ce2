// Package infra contains technical adapters such as the MQTT and Redis
// notification publishers, metrics exporters and error monitoring. These
// packages depend only on the interfaces defined in the core packages.
package infra
