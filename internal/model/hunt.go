package model

type HuntPhase string

const (
	HuntNotStarted HuntPhase = "not_started"
	HuntRunning    HuntPhase = "running"
	HuntEnded      HuntPhase = "ended"
)

func ParseHuntPhase(s string) (HuntPhase, bool) {
	switch HuntPhase(s) {
	case HuntNotStarted, HuntRunning, HuntEnded:
		return HuntPhase(s), true
	}
	return HuntNotStarted, false
}

// HuntState is the global hunt status that gates result visibility.
type HuntState struct {
	Phase        HuntPhase `json:"phase"`
	AnswersReady bool      `json:"answersReady"`
}

// ResultsVisible reports whether grading details may be shown to participants.
func (s HuntState) ResultsVisible() bool {
	return s.Phase == HuntEnded && s.AnswersReady
}
