package models

// Bet advice values carried by crash predictions.
const (
	BetYes = "SI"
	BetNo  = "NO"
)

// MPrediction is the latest advisory for a subscription. Crash and roulette
// feeds fill different halves of the struct.
type MPrediction struct {
	RoundID string `json:"roundId,omitempty"`

	Prediction   float64  `json:"prediction,omitempty"`
	Score        float64  `json:"score,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	CasinoMood   int      `json:"casinoMood"`
	FeaturesUsed []string `json:"featuresUsed,omitempty"`
	Bet          string   `json:"bet,omitempty"`

	PredictionType  string   `json:"predictionType,omitempty"`
	PredictedValues []string `json:"predictedValues,omitempty"`
	Probability     float64  `json:"probability,omitempty"`
}
