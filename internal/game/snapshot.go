package game

import "time"

// Snapshot is a read-only view of a session at one instant, built from scratch
// on every status query.
//
// Pending snapshots carry only State. Brief snapshots leave Board, TimeLimit,
// nicknames and word lists empty.
type Snapshot struct {
	State     State
	Brief     bool
	Board     string
	TimeLimit int
	TimeLeft  int
	Player1   PlayerStatus
	Player2   PlayerStatus
}

// PlayerStatus is one player's part of a snapshot.
type PlayerStatus struct {
	Nickname string
	Score    int
	Words    []WordScore
}

// WordScore is one ledger entry as shown to clients.
type WordScore struct {
	Word  string
	Score int
}

// NewSnapshot builds the view of s at now. state is passed in so callers can
// apply a completion latch; nick1 and nick2 are the players' nicknames.
func NewSnapshot(s *Session, state State, now time.Time, brief bool, nick1, nick2 string) Snapshot {
	if state == StatePending {
		return Snapshot{State: StatePending}
	}
	snap := Snapshot{
		State:   state,
		Brief:   brief,
		Player1: PlayerStatus{Score: s.ScoreOf(s.Player1)},
		Player2: PlayerStatus{Score: s.ScoreOf(s.Player2)},
	}
	if state == StateActive {
		snap.TimeLeft = s.TimeLeft(now)
	}
	if brief {
		return snap
	}
	snap.Board = s.Board.String()
	snap.TimeLimit = s.TimeLimit
	snap.Player1.Nickname = nick1
	snap.Player1.Words = wordScores(s.WordsOf(s.Player1))
	snap.Player2.Nickname = nick2
	snap.Player2.Words = wordScores(s.WordsOf(s.Player2))
	return snap
}

func wordScores(ws []Word) []WordScore {
	out := make([]WordScore, 0, len(ws))
	for _, w := range ws {
		out = append(out, WordScore{Word: w.Text, Score: w.Score})
	}
	return out
}
