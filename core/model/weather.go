package model

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// Weather is the sky condition driving solar output.
type Weather int

const (
	Sunny Weather = iota
	Cloudy
	Night
)

// String returns a human-readable representation of the weather.
func (w Weather) String() string {
	switch w {
	case Sunny:
		return "sunny"
	case Cloudy:
		return "cloudy"
	case Night:
		return "night"
	default:
		return "unknown"
	}
}

// Valid reports whether w is one of the known conditions.
func (w Weather) Valid() bool { return w >= Sunny && w <= Night }

// ParseWeather accepts either the numeric code (0, 1, 2) or the name.
func ParseWeather(s string) (Weather, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		w := Weather(n)
		if !w.Valid() {
			return 0, fmt.Errorf("unknown weather code %d", n)
		}
		return w, nil
	}
	switch s {
	case "sunny":
		return Sunny, nil
	case "cloudy":
		return Cloudy, nil
	case "night":
		return Night, nil
	}
	return 0, fmt.Errorf("unknown weather %q", s)
}

// WeatherSignal is the process-wide weather condition. It can be changed at
// any time; readers observe the new value on their next power computation.
type WeatherSignal struct {
	v atomic.Int32
}

// NewWeatherSignal returns a signal initialised to w.
func NewWeatherSignal(w Weather) *WeatherSignal {
	s := &WeatherSignal{}
	s.v.Store(int32(w))
	return s
}

// Current returns the weather now in effect.
func (s *WeatherSignal) Current() Weather {
	if s == nil {
		return Sunny
	}
	return Weather(s.v.Load())
}

// Set replaces the current weather.
func (s *WeatherSignal) Set(w Weather) error {
	if s == nil {
		return fmt.Errorf("weather signal not initialised")
	}
	if !w.Valid() {
		return fmt.Errorf("unknown weather code %d", int(w))
	}
	s.v.Store(int32(w))
	return nil
}
