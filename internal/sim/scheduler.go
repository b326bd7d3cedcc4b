package sim

import (
	"log/slog"

	"github.com/talgya/demesne/internal/entropy"
)

// factors are the combined multipliers fed into the dynamics formula,
// one per channel.
type factors struct {
	birth float64
	death float64
	k     float64
}

// activeEvent pairs a registered event with its remaining duration.
// The scheduler holds at most one of these at a time.
type activeEvent struct {
	event     *EventType
	weeksLeft int
}

// scheduler owns the single active-event slot. Each week it ages out the
// current event, then — if idle — walks the registered events in order and
// triggers the first one whose probability draw succeeds.
type scheduler struct {
	registry []EventType
	active   *activeEvent
	history  []EventRecord
}

// update advances the scheduler by one week. week is the simulator's week
// counter after incrementing, so history records carry the week the event
// first took effect.
func (s *scheduler) update(week int, rng entropy.Source) {
	if s.active != nil {
		s.active.weeksLeft--
		if s.active.weeksLeft <= 0 {
			// Ends silently; callers observe the absence on later queries.
			s.active = nil
		}
	}

	if s.active != nil {
		return
	}

	// First match wins: later events are not evaluated this week even if
	// their own draw would have succeeded. Registration order matters.
	for i := range s.registry {
		ev := &s.registry[i]
		if rng.Float64() < ev.probability {
			span := ev.maxWeeks - ev.minWeeks + 1
			duration := ev.minWeeks + rng.IntN(span)
			s.active = &activeEvent{event: ev, weeksLeft: duration}
			s.history = append(s.history, EventRecord{
				Name:      ev.name,
				StartWeek: week,
				EndWeek:   week + duration,
				Impacts:   ev.impacts,
			})
			slog.Info("random event triggered",
				"name", ev.name,
				"week", week,
				"duration_weeks", duration,
			)
			break
		}
	}
}

// combined multiplies the manual environmental factors by the active event's
// impacts, if any. Recomputed on every call so manual changes apply mid-event.
func (s *scheduler) combined(env factors) factors {
	if s.active != nil {
		imp := s.active.event.impacts
		env.birth *= imp.Birth
		env.death *= imp.Death
		env.k *= imp.K
	}
	return env
}
