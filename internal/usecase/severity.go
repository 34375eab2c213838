package usecase

import "climate-dashboard/internal/domain"

const (
	defaultCriticalAbove = 90
	defaultHighAbove     = 70
)

// SeverityThresholds classifies deforestation alerts by confidence. Both
// bounds are exclusive.
type SeverityThresholds struct {
	CriticalAbove float64
	HighAbove     float64
}

// DefaultSeverityThresholds returns confidence > 90 critical, > 70 high.
func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{CriticalAbove: defaultCriticalAbove, HighAbove: defaultHighAbove}
}

func (t SeverityThresholds) valid() bool {
	return t.HighAbove > 0 && t.CriticalAbove > t.HighAbove
}

// Classify maps a 0-100 confidence to a severity.
func (t SeverityThresholds) Classify(confidence float64) domain.Severity {
	switch {
	case confidence > t.CriticalAbove:
		return domain.SeverityCritical
	case confidence > t.HighAbove:
		return domain.SeverityHigh
	default:
		return domain.SeverityMedium
	}
}

// classifySeaTemperature maps a surface temperature in Celsius to coral stress.
func classifySeaTemperature(tempC float64) domain.Severity {
	switch {
	case tempC > 30:
		return domain.SeverityCritical
	case tempC > 29:
		return domain.SeverityHigh
	case tempC > 28:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func bleachingStatus(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "severe bleaching"
	case domain.SeverityHigh:
		return "bleaching alert"
	case domain.SeverityMedium:
		return "bleaching watch"
	default:
		return "no stress"
	}
}

// classifyAQI maps the 1-5 air quality index to a severity.
func classifyAQI(aqi int) domain.Severity {
	switch {
	case aqi >= 5:
		return domain.SeverityCritical
	case aqi == 4:
		return domain.SeverityHigh
	case aqi == 3:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
