// Package report turns the sectioned free-text analysis returned by the
// completion service into a typed Report.
package report

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

const NotAvailable = "N/A"

// Ratings produced by the individual analysis rubric.
const (
	RatingExcellent = "매우 적합"
	RatingGood      = "적합"
	RatingReview    = "검토 필요"
	RatingPoor      = "부적합"
)

// ErrUnparsable is the single composite parse failure. Callers render it as a
// dedicated "could not parse" state and never show partial data.
var ErrUnparsable = errors.New("report could not be parsed")

type Summary struct {
	Score            string   `json:"score"`
	Rating           string   `json:"rating"`
	GreenFlags       []string `json:"greenFlags"`
	RedFlags         []string `json:"redFlags"`
	CoreCompetencies []string `json:"coreCompetencies"`
}

type InterviewQuestions struct {
	Technical  []string `json:"technical"`
	Behavioral []string `json:"behavioral"`
	Cultural   []string `json:"cultural"`
}

type Report struct {
	Summary   Summary            `json:"summary"`
	Details   string             `json:"details"`
	Questions InterviewQuestions `json:"questions"`
	Checklist []string           `json:"checklist"`
}

// NumericScore returns the leading integer of the score, if there is one.
func (r *Report) NumericScore() (int, bool) {
	s := strings.TrimSpace(r.Summary.Score)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Tier is the display classification of a rating or score.
type Tier int

const (
	TierUnknown Tier = iota
	TierPoor
	TierReview
	TierGood
	TierExcellent
)

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierReview:
		return "review"
	case TierPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// RatingTier classifies an exact rating string.
func RatingTier(rating string) Tier {
	switch rating {
	case RatingExcellent:
		return TierExcellent
	case RatingGood:
		return TierGood
	case RatingReview:
		return TierReview
	case RatingPoor:
		return TierPoor
	default:
		return TierUnknown
	}
}

// ScoreTier classifies a 0-100 score with the rubric thresholds.
func ScoreTier(score int) Tier {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 50:
		return TierReview
	default:
		return TierPoor
	}
}
