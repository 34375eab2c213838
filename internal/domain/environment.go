package domain

// Severity is the normalized classification shared by every environmental record.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Location is the geographic scope of an environmental-data request.
type Location struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

type DeforestationAlert struct {
	ID         int      `json:"id"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
	AreaHa     float64  `json:"area"`
	Date       string   `json:"date"`
	Location   string   `json:"location"`
}

type CoralReef struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	Severity        Severity `json:"severity"`
	TemperatureC    float64  `json:"temperature"`
	BleachingStatus string   `json:"bleachingStatus"`
}

type PlasticHotspot struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Severity      Severity `json:"severity"`
	TonsPerYear   float64  `json:"tonsPerYear"`
	PrimarySource string   `json:"primarySource"`
}

type EmissionSource struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Severity Severity `json:"severity"`
	AQI      int      `json:"aqi"`
	CO       float64  `json:"co"`
	NO2      float64  `json:"no2"`
	PM25     float64  `json:"pm25"`
	Sector   string   `json:"sector"`
}
