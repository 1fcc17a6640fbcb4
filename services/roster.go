// services/roster.go
package services

import (
	"sync"
	"time"

	"squadpay-system/models"

	"gorm.io/gorm"
)

// RosterState tracks the participant subscription lifecycle for one selection.
type RosterState string

const (
	RosterUnselected RosterState = "unselected"
	RosterLoading    RosterState = "loading"
	RosterLoaded     RosterState = "loaded"
	RosterFailed     RosterState = "failed"
)

// RosterUpdate is one push to the dashboard: the tournament list, the roster
// of the selected tournament with its aggregate totals, or a terminal error.
type RosterUpdate struct {
	State        RosterState          `json:"state"`
	SelectedID   string               `json:"selected_tournament_id,omitempty"`
	Tournaments  []models.Tournament  `json:"tournaments,omitempty"`
	Participants []models.Participant `json:"participants,omitempty"`
	Totals       *models.Totals       `json:"totals,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// RosterSession is one organizer's live view: a tournament-list subscription
// for the session's lifetime plus at most one participant subscription for
// the currently selected tournament. Switching the selection closes the
// prior participant watcher before the new one delivers anything, so a
// roster snapshot can never belong to a previously selected tournament.
//
// The selection state machine is Unselected → Loading → Loaded | Failed;
// a new Select restarts it. A tournament-list error is terminal for the
// whole session: there is no retry, the client opens a new session.
type RosterSession struct {
	db       *gorm.DB
	interval time.Duration

	mu                 sync.Mutex
	closed             bool
	failed             bool
	state              RosterState
	selectedID         string
	tournaments        []models.Tournament
	participants       []models.Participant
	totals             models.Totals
	tournamentWatcher  *Watcher[models.Tournament]
	participantWatcher *Watcher[models.Participant]

	updates chan RosterUpdate
}

func NewRosterSession(db *gorm.DB, interval time.Duration) *RosterSession {
	s := &RosterSession{
		db:       db,
		interval: interval,
		state:    RosterUnselected,
		updates:  make(chan RosterUpdate, 16),
	}
	s.tournamentWatcher = watchTournaments(db, interval)
	go s.consumeTournaments(s.tournamentWatcher)
	return s
}

// Updates delivers roster pushes until the session is closed.
func (s *RosterSession) Updates() <-chan RosterUpdate {
	return s.updates
}

// Select switches the active participant subscription to the given
// tournament. The previous watcher is fully torn down first.
func (s *RosterSession) Select(tournamentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.failed || tournamentID == "" {
		return
	}
	s.selectLocked(tournamentID)
}

func (s *RosterSession) selectLocked(tournamentID string) {
	if prev := s.participantWatcher; prev != nil {
		s.participantWatcher = nil
		prev.Close()
	}

	s.selectedID = tournamentID
	s.state = RosterLoading
	s.participants = nil
	s.totals = models.Totals{}
	s.emitLocked(RosterUpdate{State: RosterLoading, SelectedID: tournamentID, Tournaments: s.tournaments})

	w := watchParticipants(s.db, tournamentID, s.interval)
	s.participantWatcher = w
	go s.consumeParticipants(w)
}

func (s *RosterSession) consumeTournaments(w *Watcher[models.Tournament]) {
	for snap := range w.Snapshots() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		if snap.Err != nil {
			s.failed = true
			s.state = RosterFailed
			s.emitLocked(RosterUpdate{State: RosterFailed, Error: "failed to load tournaments"})
			s.mu.Unlock()
			return
		}
		s.tournaments = snap.Items
		s.emitLocked(RosterUpdate{
			State:        s.state,
			SelectedID:   s.selectedID,
			Tournaments:  snap.Items,
			Participants: s.participants,
			Totals:       s.totalsPtrLocked(),
		})
		// Default selection: first tournament once the list becomes non-empty.
		if s.selectedID == "" && len(snap.Items) > 0 {
			s.selectLocked(snap.Items[0].ID)
		}
		s.mu.Unlock()
	}
}

func (s *RosterSession) consumeParticipants(w *Watcher[models.Participant]) {
	for snap := range w.Snapshots() {
		s.mu.Lock()
		// A stale watcher (replaced by a newer Select) must never publish.
		if s.closed || s.participantWatcher != w {
			s.mu.Unlock()
			return
		}
		if snap.Err != nil {
			s.state = RosterFailed
			s.emitLocked(RosterUpdate{State: RosterFailed, SelectedID: s.selectedID, Error: "failed to load participants"})
			s.mu.Unlock()
			return
		}
		s.state = RosterLoaded
		s.participants = snap.Items
		s.totals = models.SumTotals(snap.Items)
		totals := s.totals
		s.emitLocked(RosterUpdate{
			State:        RosterLoaded,
			SelectedID:   s.selectedID,
			Tournaments:  s.tournaments,
			Participants: snap.Items,
			Totals:       &totals,
		})
		s.mu.Unlock()
	}
}

// emitLocked keeps the newest updates when the subscriber lags, dropping
// the oldest pending push.
func (s *RosterSession) emitLocked(u RosterUpdate) {
	for {
		select {
		case s.updates <- u:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

func (s *RosterSession) totalsPtrLocked() *models.Totals {
	if s.state != RosterLoaded {
		return nil
	}
	totals := s.totals
	return &totals
}

// Close tears down both subscriptions. No update is delivered afterwards.
func (s *RosterSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	tw := s.tournamentWatcher
	pw := s.participantWatcher
	s.participantWatcher = nil
	s.mu.Unlock()

	if tw != nil {
		tw.Close()
	}
	if pw != nil {
		pw.Close()
	}
	close(s.updates)
}

func (s *RosterSession) State() RosterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *RosterSession) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

func (s *RosterSession) Tournaments() []models.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tournaments
}

func (s *RosterSession) Participants() []models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants
}

func (s *RosterSession) Totals() models.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}
