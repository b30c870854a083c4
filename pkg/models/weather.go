package models

// Location identifies where a weather reading was taken.
type Location struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// CurrentWeather holds the normalized current conditions.
type CurrentWeather struct {
	Time               string  `json:"time"` // ISO-8601 local time, as returned by the API
	Temperature        float64 `json:"temperature"`
	Humidity           int     `json:"humidity"`
	WeatherCode        int     `json:"weatherCode"` // WMO interpretation code
	WeatherDescription string  `json:"weatherDescription"`
	WindSpeed          float64 `json:"windSpeed"`
	WindDirection      int     `json:"windDirection"`
}

// WeatherSnapshot is the payload emitted by the weather poller.
type WeatherSnapshot struct {
	Location  Location       `json:"location"`
	Current   CurrentWeather `json:"current"`
	FetchedAt string         `json:"fetchedAt"`
}

// FormattedWeather is the payload produced by the weather formatter.
type FormattedWeather struct {
	Time            string `json:"time"`
	Date            string `json:"date"`
	WeatherInfoText string `json:"weather_info_text"`
}
