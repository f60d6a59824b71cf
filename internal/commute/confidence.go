package commute

// Confidence contributions. The score starts at BaseConfidence and each
// signal present adds its weight. The sum is not capped.
const (
	BaseConfidence = 30

	GoodWeatherWeight = 20
	RainAlertWeight   = 15
	HeatWeight        = 10
	RouteFoundWeight  = 25
	NewsFoundWeight   = 10
	SocialFoundWeight = 10
)

// Signals records which inputs backed a recommendation.
type Signals struct {
	GoodWeather bool `json:"good_weather"`
	RainAlert   bool `json:"rain_alert"`
	Heat        bool `json:"heat"`
	RouteFound  bool `json:"route_found"`
	NewsFound   bool `json:"news_found"`
	SocialFound bool `json:"social_found"`
}

// Confidence adds up the weights of the signals present.
func Confidence(s Signals) int {
	score := BaseConfidence
	for _, c := range []struct {
		present bool
		weight  int
	}{
		{s.GoodWeather, GoodWeatherWeight},
		{s.RainAlert, RainAlertWeight},
		{s.Heat, HeatWeight},
		{s.RouteFound, RouteFoundWeight},
		{s.NewsFound, NewsFoundWeight},
		{s.SocialFound, SocialFoundWeight},
	} {
		if c.present {
			score += c.weight
		}
	}
	return score
}
