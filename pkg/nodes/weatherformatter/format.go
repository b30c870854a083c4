package weatherformatter

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/dukex/weatherflow/pkg/models"
)

var (
	clockPattern = regexp.MustCompile(`T(\d{2}:\d{2})`)
	datePattern  = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// weatherLabels maps WMO weather codes to Japanese labels.
var weatherLabels = map[int]string{
	0:  "快晴",
	1:  "晴れ",
	2:  "薄曇り",
	3:  "曇り",
	45: "霧",
	48: "霧",
	51: "霧雨",
	53: "霧雨",
	55: "霧雨",
	61: "雨",
	63: "雨",
	65: "雨",
	71: "雪",
	73: "雪",
	75: "雪",
	95: "雷雨",
}

const unknownWeather = "不明"

// FormatTime extracts "HH:MM" from an ISO-8601 timestamp, or returns the input unchanged.
func FormatTime(isoTime string) string {
	if match := clockPattern.FindStringSubmatch(isoTime); match != nil {
		return match[1]
	}

	return isoTime
}

// FormatDate renders the calendar date as "<year>年<month>月<day>日", or returns the input unchanged.
func FormatDate(isoTime string) string {
	match := datePattern.FindStringSubmatch(isoTime)
	if match == nil {
		return isoTime
	}

	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])

	return fmt.Sprintf("%s年%d月%d日", match[1], month, day)
}

// DescribeWeatherCode returns the Japanese label for a WMO code, or 不明.
func DescribeWeatherCode(code any) string {
	value, ok := models.AsNumber(code)
	if !ok || value != float64(int(value)) {
		return unknownWeather
	}

	if label, ok := weatherLabels[int(value)]; ok {
		return label
	}

	return unknownWeather
}

// WeatherInfoText builds the one-line summary embedding temperature, humidity and weather.
func WeatherInfoText(temperature, humidity any, weather string) string {
	return fmt.Sprintf("気温: %s°C、湿度: %s%%、天気: %s", formatValue(temperature), formatValue(humidity), weather)
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}

	if n, ok := models.AsNumber(v); ok {
		return models.FormatNumber(n)
	}

	return fmt.Sprint(v)
}
