package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type topicSink struct {
	Topic string
	QoS   int
}

type topicConf struct {
	Topic string `json:"topic"`
	QoS   int    `json:"qos"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*topicSink]()
	require.NoError(t, reg.Register("mqtt", func(conf map[string]any) (*topicSink, error) {
		var c topicConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &topicSink{Topic: c.Topic, QoS: c.QoS}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "mqtt", Conf: map[string]any{"topic": "station/1", "qos": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "station/1", inst.Topic)
	assert.Equal(t, 1, inst.QoS, "string scalars decode weakly")
	assert.Equal(t, []string{"mqtt"}, reg.Names())
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("y", nil))
	_, err := reg.Create(ModuleConfig{Type: "z"})
	assert.Error(t, err)
}
