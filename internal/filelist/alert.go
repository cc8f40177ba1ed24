package filelist

import "time"

// DefaultAlertTimeout is how long an alert stays visible
const DefaultAlertTimeout = 5 * time.Second

// alertSlot holds at most one alert. Every show bumps gen; a hide timer only
// clears the slot when the generation it was armed for is still current.
type alertSlot struct {
	timeout time.Duration
	current *Alert
	gen     uint64
	timer   *time.Timer
}

// show replaces the current alert and arms the hide timer. expire runs on the
// timer goroutine with the generation it was armed for.
func (s *alertSlot) show(text string, kind AlertKind, expire func(gen uint64)) {
	s.stop()
	s.gen++
	gen := s.gen
	s.current = &Alert{Text: text, Kind: kind, ShownAt: time.Now()}
	if expire != nil {
		s.timer = time.AfterFunc(s.timeout, func() { expire(gen) })
	}
}

// hide clears the slot if gen is still the latest. Reports whether anything changed.
func (s *alertSlot) hide(gen uint64) bool {
	if gen != s.gen || s.current == nil {
		return false
	}
	s.current = nil
	s.timer = nil
	return true
}

func (s *alertSlot) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *alertSlot) visible() *Alert {
	if s.current == nil {
		return nil
	}
	a := *s.current
	return &a
}
