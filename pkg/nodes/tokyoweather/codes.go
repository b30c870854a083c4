package tokyoweather

import "fmt"

// weatherDescriptions maps WMO weather interpretation codes to English labels.
var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	95: "Thunderstorm",
}

// DescribeWeatherCode returns the English label for a WMO code, or "Unknown (<code>)".
func DescribeWeatherCode(code int) string {
	if label, ok := weatherDescriptions[code]; ok {
		return label
	}

	return fmt.Sprintf("Unknown (%d)", code)
}
