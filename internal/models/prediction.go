package models

// Prediction outcomes.
const (
	OutcomePending      = "pending"
	OutcomeCorrect      = "correct"
	OutcomeIncorrect    = "incorrect"
	OutcomeInconclusive = "inconclusive"
)

// Prediction is one recorded projection awaiting (or past) evaluation.
type Prediction struct {
	ID                 string             `json:"id"`
	Coin               string             `json:"coin"`
	Type               string             `json:"projection_type"`
	Time               int64              `json:"timestamp"`
	InitialPrice       float64            `json:"initial_price"`
	PredictedBias      string             `json:"predicted_bias"`
	PredictedDirection string             `json:"predicted_direction"`
	Score              float64            `json:"score"`
	Strength           string             `json:"strength"`
	Grade              string             `json:"grade,omitempty"`
	ConfidenceLevel    string             `json:"confidence_level"`
	Signals            map[string]float64 `json:"signals,omitempty"`
	Evaluated          bool               `json:"evaluated"`
	Outcome            string             `json:"outcome"`
	FinalPrice         *float64           `json:"final_price,omitempty"`
	ActualChangePct    *float64           `json:"actual_price_change_pct,omitempty"`
	EvaluatedAt        *int64             `json:"evaluated_at,omitempty"`
}
