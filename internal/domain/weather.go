package domain

import (
	"math"
	"time"
)

// WeatherInfo describes ambient conditions at an instant.
type WeatherInfo struct {
	Temperature float64 // degrees Fahrenheit
}

// Forecaster produces the weather for an instant. Implementations must be
// pure: the same instant always yields the same WeatherInfo.
type Forecaster interface {
	On(now time.Time) WeatherInfo
}

// Weather is a synthetic periodic temperature signal.
type Weather struct {
	Mean      float64
	Amplitude float64
	Period    time.Duration
}

// NewWeather returns the default profile. Its range spans all growth brackets.
func NewWeather() Weather {
	return Weather{
		Mean:      65,
		Amplitude: 22,
		Period:    10 * time.Minute,
	}
}

// On returns the temperature at now: a main wave over Period plus a smaller
// ripple at three times the frequency.
func (w Weather) On(now time.Time) WeatherInfo {
	if w.Period <= 0 {
		return WeatherInfo{Temperature: w.Mean}
	}

	offset := now.UnixNano() % int64(w.Period)
	if offset < 0 {
		offset += int64(w.Period)
	}
	phase := 2 * math.Pi * float64(offset) / float64(w.Period)

	temp := w.Mean + w.Amplitude*math.Sin(phase) + w.Amplitude/6*math.Sin(3*phase)
	return WeatherInfo{Temperature: math.Round(temp*10) / 10}
}
