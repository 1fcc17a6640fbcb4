package services

import (
	"testing"
	"time"

	"squadpay-system/models"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const rosterTestInterval = 5 * time.Millisecond

type RosterSessionTestSuite struct {
	suite.Suite
	db *gorm.DB
}

func (s *RosterSessionTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
}

func (s *RosterSessionTestSuite) newSession() *RosterSession {
	session := NewRosterSession(s.db, rosterTestInterval)
	s.T().Cleanup(session.Close)
	return session
}

func (s *RosterSessionTestSuite) eventually(cond func() bool, msg string) {
	require.Eventually(s.T(), cond, 2*time.Second, rosterTestInterval, msg)
}

func (s *RosterSessionTestSuite) TestStartsUnselectedWhenNoTournaments() {
	session := s.newSession()

	s.eventually(func() bool { return session.Tournaments() != nil || session.State() == RosterUnselected },
		"session should settle")
	s.Equal(RosterUnselected, session.State())
	s.Empty(session.SelectedID())
}

func (s *RosterSessionTestSuite) TestDefaultsToFirstTournament() {
	first := seedTournament(s.T(), s.db, "Sunday Premier League")
	time.Sleep(2 * time.Millisecond) // distinct created_at ordering
	seedTournament(s.T(), s.db, "Monsoon Cup")

	session := s.newSession()

	s.eventually(func() bool { return session.SelectedID() == first.ID },
		"first tournament should be auto-selected")
	s.eventually(func() bool { return session.State() == RosterLoaded },
		"selection should reach Loaded")
}

func (s *RosterSessionTestSuite) TestEmptyRosterLoadsWithZeroTotals() {
	tournament := seedTournament(s.T(), s.db, "Sunday Premier League")
	session := s.newSession()
	session.Select(tournament.ID)

	s.eventually(func() bool { return session.State() == RosterLoaded }, "roster should load")
	s.Empty(session.Participants())
	s.Equal(models.Totals{}, session.Totals())
}

func (s *RosterSessionTestSuite) TestTotalsRecomputedOnSnapshot() {
	tournament := seedTournament(s.T(), s.db, "Sunday Premier League")
	seedParticipant(s.T(), s.db, tournament.ID, "Rahul", 1000, 1000)
	seedParticipant(s.T(), s.db, tournament.ID, "Imran", 500, 200)

	session := s.newSession()
	session.Select(tournament.ID)

	s.eventually(func() bool { return len(session.Participants()) == 2 }, "roster should load both rows")
	s.Equal(models.Totals{TotalFee: 1500, TotalPaid: 1200, TotalRemaining: 300}, session.Totals())

	// A payment lands; the next snapshot refreshes the totals.
	s.Require().NoError(s.db.Model(&models.Participant{}).
		Where("tournament_id = ? AND name = ?", tournament.ID, "Imran").
		Updates(map[string]any{"amount_paid": 500.0, "status": models.PaymentStatusPaid, "updated_at": time.Now().Add(time.Second)}).Error)

	s.eventually(func() bool { return session.Totals().TotalRemaining == 0 },
		"totals should follow the payment")
}

func (s *RosterSessionTestSuite) TestSelectSwitchesRosterWithoutLeakage() {
	home := seedTournament(s.T(), s.db, "Home League")
	away := seedTournament(s.T(), s.db, "Away League")
	seedParticipant(s.T(), s.db, home.ID, "Rahul", 1000, 0)
	seedParticipant(s.T(), s.db, away.ID, "Sunil", 750, 750)

	session := s.newSession()
	session.Select(home.ID)
	s.eventually(func() bool { return len(session.Participants()) == 1 && session.Participants()[0].Name == "Rahul" },
		"home roster should load")

	session.Select(away.ID)
	s.eventually(func() bool { return session.State() == RosterLoaded && session.SelectedID() == away.ID },
		"away roster should load")

	// Every participant visible now belongs to the newly selected tournament.
	for _, p := range session.Participants() {
		s.Equal(away.ID, p.TournamentID)
	}
	s.Equal(models.Totals{TotalFee: 750, TotalPaid: 750, TotalRemaining: 0}, session.Totals())
}

func (s *RosterSessionTestSuite) TestSubscriptionErrorIsTerminalForSelection() {
	tournament := seedTournament(s.T(), s.db, "Sunday Premier League")
	session := s.newSession()
	session.Select(tournament.ID)
	s.eventually(func() bool { return session.State() == RosterLoaded }, "roster should load")

	// Break the participant query; the next poll fails the selection.
	s.Require().NoError(s.db.Migrator().DropTable(&models.Participant{}))

	s.eventually(func() bool { return session.State() == RosterFailed },
		"selection should fail on subscription error")
}

func (s *RosterSessionTestSuite) TestUpdatesStreamCarriesRosterPushes() {
	tournament := seedTournament(s.T(), s.db, "Sunday Premier League")
	seedParticipant(s.T(), s.db, tournament.ID, "Rahul", 1000, 400)

	session := s.newSession()
	session.Select(tournament.ID)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case update, ok := <-session.Updates():
			s.Require().True(ok, "updates channel closed early")
			if update.State == RosterLoaded && len(update.Participants) == 1 {
				s.Require().NotNil(update.Totals)
				s.Equal(1000.0, update.Totals.TotalFee)
				s.Equal(400.0, update.Totals.TotalPaid)
				s.Equal(600.0, update.Totals.TotalRemaining)
				return
			}
		case <-deadline:
			s.FailNow("never saw a Loaded roster update")
		}
	}
}

func TestRosterSessionTestSuite(t *testing.T) {
	suite.Run(t, new(RosterSessionTestSuite))
}
