package usecase

import "climate-dashboard/internal/domain"

// Reference data served when no provider answers for a capability. Each
// function returns a fresh slice so callers may not corrupt later responses.

func DeforestationFallback() []domain.DeforestationAlert {
	return []domain.DeforestationAlert{
		{ID: 1, Lat: -3.4653, Lng: -62.2159, Severity: domain.SeverityCritical, Confidence: 95, AreaHa: 1250.5, Date: "2024-01-15", Location: "Amazon Rainforest, Brazil"},
		{ID: 2, Lat: -0.2280, Lng: 15.8277, Severity: domain.SeverityHigh, Confidence: 82, AreaHa: 850.2, Date: "2024-01-14", Location: "Congo Basin, DRC"},
		{ID: 3, Lat: 0.9619, Lng: 114.5548, Severity: domain.SeverityMedium, Confidence: 65, AreaHa: 420.8, Date: "2024-01-13", Location: "Borneo, Indonesia"},
	}
}

func CoralFallback() []domain.CoralReef {
	return []domain.CoralReef{
		{ID: 1, Name: "Great Barrier Reef", Lat: -18.2871, Lng: 147.6992, Severity: domain.SeverityHigh, TemperatureC: 29.5, BleachingStatus: "bleaching alert"},
		{ID: 2, Name: "Mesoamerican Reef", Lat: 16.5000, Lng: -87.5000, Severity: domain.SeverityCritical, TemperatureC: 30.4, BleachingStatus: "severe bleaching"},
		{ID: 3, Name: "Red Sea Coral Reef", Lat: 22.0000, Lng: 38.0000, Severity: domain.SeverityLow, TemperatureC: 27.2, BleachingStatus: "no stress"},
	}
}

func PlasticFallback() []domain.PlasticHotspot {
	return []domain.PlasticHotspot{
		{ID: 1, Name: "Great Pacific Garbage Patch", Lat: 38.0000, Lng: -145.0000, Severity: domain.SeverityCritical, TonsPerYear: 80000, PrimarySource: "fishing gear"},
		{ID: 2, Name: "Mediterranean Sea", Lat: 35.0000, Lng: 18.0000, Severity: domain.SeverityHigh, TonsPerYear: 229000, PrimarySource: "packaging"},
		{ID: 3, Name: "Bay of Bengal", Lat: 15.0000, Lng: 88.0000, Severity: domain.SeverityHigh, TonsPerYear: 150000, PrimarySource: "river discharge"},
	}
}

func EmissionsFallback() []domain.EmissionSource {
	return []domain.EmissionSource{
		{ID: 1, Name: "Delhi, India", Lat: 28.6139, Lng: 77.2090, Severity: domain.SeverityCritical, AQI: 5, CO: 1850.4, NO2: 68.2, PM25: 152.3, Sector: "transport"},
		{ID: 2, Name: "Beijing, China", Lat: 39.9042, Lng: 116.4074, Severity: domain.SeverityHigh, AQI: 4, CO: 920.1, NO2: 45.7, PM25: 62.8, Sector: "industry"},
		{ID: 3, Name: "Los Angeles, USA", Lat: 34.0522, Lng: -118.2437, Severity: domain.SeverityMedium, AQI: 3, CO: 410.6, NO2: 30.2, PM25: 18.4, Sector: "transport"},
	}
}
