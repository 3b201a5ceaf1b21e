// Package trend compares a conversation snapshot against its history.
package trend

import (
	"math"

	"github.com/rcliao/convoq/internal/model"
)

// Decisions and their colors.
const (
	NotEnoughData       = "Not Enough Data"
	Continue            = "Continue"
	ContinueWithChanges = "Continue with Changes"
	PauseReconsider     = "Pause / Reconsider"

	ColorGray   = "gray"
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorRed    = "red"
)

const (
	// MaxHistory is the number of prior snapshots considered.
	MaxHistory = 5
	// WindowSize is the number of snapshots, current included, compared.
	WindowSize = 3

	deltaThreshold     = 5.0
	imbalanceThreshold = 0.3
	criticalHealth     = 40.0
	atRiskHealth       = 60.0
)

// Reasons.
const (
	ReasonMoreData         = "Upload more chats over time to track trends."
	ReasonHealthDeclining  = "Relationship health is actively declining."
	ReasonToxicityRising   = "Toxicity levels are rising."
	ReasonSevereImbalance  = "Severe effort imbalance detected."
	ReasonOneCarrying      = "One person is carrying the conversation."
	ReasonHealthDropped    = "Health score has dropped recently."
	ReasonToxicityCreeping = "Toxicity is creeping up."
	ReasonOneSidedEffort   = "Effort is very one-sided."
	ReasonImproving        = "Relationship health is improving!"
	ReasonStable           = "Relationship appears stable."
)

// Evaluate decides whether a conversation should continue. history is
// newest first, as a history store returns it; at most MaxHistory entries
// are used and snapshots still pending a deep analysis are ignored.
func Evaluate(current model.Snapshot, history []model.Snapshot) model.Trend {
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}

	// Oldest to newest, current last.
	var all []model.Snapshot
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Complete() {
			all = append(all, history[i])
		}
	}
	all = append(all, current)

	if len(all) < 2 {
		return model.Trend{
			Decision:      NotEnoughData,
			DecisionColor: ColorGray,
			Reasons:       []string{ReasonMoreData},
		}
	}

	window := all
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}
	prev := window[:len(window)-1]
	var avgHealth, avgTox float64
	for _, s := range prev {
		avgHealth += s.HealthScore
		avgTox += s.ToxicityRate
	}
	avgHealth /= float64(len(prev))
	avgTox /= float64(len(prev))

	healthDelta := current.HealthScore - avgHealth
	toxDelta := current.ToxicityRate - avgTox

	declining := healthDelta < -deltaThreshold
	improving := healthDelta > deltaThreshold
	rising := toxDelta > deltaThreshold
	imbalanced := current.Features.InitiationBalance < imbalanceThreshold ||
		current.Features.ReplyTimeBalance < imbalanceThreshold

	t := model.Trend{
		MetricsDelta: &model.MetricsDelta{
			HealthChange:   round1(healthDelta),
			ToxicityChange: round1(toxDelta),
		},
	}

	switch {
	case declining && rising, current.HealthScore < criticalHealth && declining:
		t.Decision, t.DecisionColor = PauseReconsider, ColorRed
		t.Reasons = []string{ReasonHealthDeclining, ReasonToxicityRising}
	case imbalanced && current.HealthScore < atRiskHealth:
		t.Decision, t.DecisionColor = PauseReconsider, ColorRed
		t.Reasons = []string{ReasonSevereImbalance, ReasonOneCarrying}
	case declining:
		t.Decision, t.DecisionColor = ContinueWithChanges, ColorYellow
		t.Reasons = []string{ReasonHealthDropped}
	case rising:
		t.Decision, t.DecisionColor = ContinueWithChanges, ColorYellow
		t.Reasons = []string{ReasonToxicityCreeping}
	case imbalanced:
		t.Decision, t.DecisionColor = ContinueWithChanges, ColorYellow
		t.Reasons = []string{ReasonOneSidedEffort}
	case improving:
		t.Decision, t.DecisionColor = Continue, ColorGreen
		t.Reasons = []string{ReasonImproving}
	default:
		t.Decision, t.DecisionColor = Continue, ColorGreen
		t.Reasons = []string{ReasonStable}
	}
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
