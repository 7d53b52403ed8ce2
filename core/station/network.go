package station

import (
	"fmt"
	"sort"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/internal/eventbus"
)

// Network is a fixed set of independent stations sharing one weather signal.
// The station map is immutable after construction.
type Network struct {
	stations map[int]*Station
	ids      []int
	weather  *model.WeatherSignal
	bus      *eventbus.Bus[events.Event]
}

// NewNetwork groups stations. Every station must read the network's weather
// signal and ids must be unique.
func NewNetwork(weather *model.WeatherSignal, stations ...*Station) (*Network, error) {
	if weather == nil {
		return nil, fmt.Errorf("network: nil weather signal")
	}
	n := &Network{stations: make(map[int]*Station, len(stations)), weather: weather}
	for _, st := range stations {
		if st == nil {
			return nil, fmt.Errorf("network: nil station")
		}
		if _, dup := n.stations[st.ID()]; dup {
			return nil, fmt.Errorf("network: duplicate station id %d", st.ID())
		}
		if st.Weather() != weather {
			return nil, fmt.Errorf("network: station %d reads a different weather signal", st.ID())
		}
		n.stations[st.ID()] = st
		n.ids = append(n.ids, st.ID())
	}
	sort.Ints(n.ids)
	return n, nil
}

// SetEventBus configures the bus receiving network wide events.
func (n *Network) SetEventBus(bus *eventbus.Bus[events.Event]) { n.bus = bus }

// Station returns the station with the given id.
func (n *Network) Station(id int) (*Station, error) {
	st, ok := n.stations[id]
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrStationNotFound, id)
	}
	return st, nil
}

// Stations returns every station by ascending id.
func (n *Network) Stations() []*Station {
	res := make([]*Station, len(n.ids))
	for i, id := range n.ids {
		res[i] = n.stations[id]
	}
	return res
}

// Weather returns the current weather condition.
func (n *Network) Weather() model.Weather { return n.weather.Current() }

// SetWeather changes the weather for every station. It takes effect on the
// next power computation.
func (n *Network) SetWeather(w model.Weather) error {
	if err := n.weather.Set(w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if n.bus != nil {
		n.bus.Publish(events.WeatherChanged{Weather: w})
	}
	return nil
}
