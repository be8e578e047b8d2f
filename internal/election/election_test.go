package election

import (
	"errors"
	"testing"

	"election-simulator/internal/audit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestElection(t *testing.T, variant Variant) *Election {
	t.Helper()
	e := New(variant, audit.Discard)
	require.NotNil(t, e)
	return e
}

// lastLines returns the last n lines of the official record
func lastLines(e *Election, n int) []string {
	lines := e.Record().Lines()
	if n > len(lines) {
		n = len(lines)
	}
	return lines[len(lines)-n:]
}

func TestNew(t *testing.T) {
	t.Run("general election logs its banner", func(t *testing.T) {
		e := newTestElection(t, General)

		assert.Equal(t, General, e.Variant())
		assert.NotEqual(t, uuid.Nil, e.ID())
		assert.False(t, e.Done())
		assert.Equal(t, []string{"General Election"}, e.Record().Lines())
		assert.Empty(t, e.Candidates())
		assert.Empty(t, e.Voters())
	})

	t.Run("primary election logs its banner", func(t *testing.T) {
		e := newTestElection(t, Primary)

		assert.Equal(t, Primary, e.Variant())
		assert.Equal(t, []string{"Primary Election"}, e.Record().Lines())
	})

	t.Run("each run gets its own id", func(t *testing.T) {
		assert.NotEqual(t, newTestElection(t, General).ID(), newTestElection(t, General).ID())
	})
}

func TestParseVariant(t *testing.T) {
	cases := []struct {
		input    string
		expected Variant
		wantErr  bool
	}{
		{input: "General", expected: General},
		{input: "Primary", expected: Primary},
		{input: "general", wantErr: true},
		{input: "PRIMARY", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			v, err := ParseVariant(c.input)
			if c.wantErr {
				assert.ErrorIs(t, err, ErrUnknownVariant)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expected, v)
			assert.Equal(t, c.input, v.String())
		})
	}
}

func TestElection_RegisterVoter(t *testing.T) {
	e := newTestElection(t, General)

	t.Run("registers a new voter", func(t *testing.T) {
		e.RegisterVoter("Bob", "R")

		v, err := e.LookupVoter("Bob")
		require.NoError(t, err)
		assert.Equal(t, Voter{Name: "Bob", Party: "R"}, v)
		assert.Equal(t, []string{"Register voter Bob as a R"}, lastLines(e, 1))
	})

	t.Run("re-registration changes affiliation only", func(t *testing.T) {
		e.RegisterCandidate("Alice", "R")
		require.NoError(t, e.CastVote("Alice", "Bob"))

		e.RegisterVoter("Bob", "D")

		v, err := e.LookupVoter("Bob")
		require.NoError(t, err)
		assert.Equal(t, "D", v.Party)
		assert.True(t, v.Voted)
		assert.Len(t, e.Voters(), 1)
		assert.Equal(t, []string{"Bob affiliation changed to D"}, lastLines(e, 1))
	})
}

func TestElection_RegisterCandidate(t *testing.T) {
	e := newTestElection(t, General)

	t.Run("registers a new candidate", func(t *testing.T) {
		e.RegisterCandidate("Alice", "R")

		c, err := e.LookupCandidate("Alice")
		require.NoError(t, err)
		assert.Equal(t, Candidate{Name: "Alice", Party: "R"}, c)
		assert.Equal(t, []string{"Register candidate Alice as a R"}, lastLines(e, 1))
	})

	t.Run("re-registration keeps the vote count", func(t *testing.T) {
		e.RegisterVoter("Bob", "R")
		require.NoError(t, e.CastVote("Alice", "Bob"))

		e.RegisterCandidate("Alice", "I")

		c, err := e.LookupCandidate("Alice")
		require.NoError(t, err)
		assert.Equal(t, "I", c.Party)
		assert.Equal(t, 1, c.Votes)
		assert.Len(t, e.Candidates(), 1)
		assert.Equal(t, []string{"Alice affiliation changed to I"}, lastLines(e, 1))
	})
}

func TestElection_CastVote(t *testing.T) {
	t.Run("records an accepted vote", func(t *testing.T) {
		e := newTestElection(t, General)
		e.RegisterCandidate("Alice", "R")
		e.RegisterVoter("Bob", "D")

		require.NoError(t, e.CastVote("Alice", "Bob"))

		c, _ := e.LookupCandidate("Alice")
		v, _ := e.LookupVoter("Bob")
		assert.Equal(t, 1, c.Votes)
		assert.True(t, v.Voted)
		assert.Equal(t, []string{"Bob voted for Alice"}, lastLines(e, 1))
	})

	t.Run("unknown voter is checked before unknown candidate", func(t *testing.T) {
		e := newTestElection(t, General)

		err := e.CastVote("Nobody", "Ghost")

		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.Equal(t, "Ghost is not registered", err.Error())
	})

	t.Run("unknown candidate", func(t *testing.T) {
		e := newTestElection(t, General)
		e.RegisterVoter("Bob", "R")

		err := e.CastVote("Nobody", "Bob")

		assert.ErrorIs(t, err, ErrNotACandidate)
		assert.Equal(t, "Nobody is not a candidate", err.Error())
		v, _ := e.LookupVoter("Bob")
		assert.False(t, v.Voted)
	})

	t.Run("empty arguments are rejected at execution time", func(t *testing.T) {
		e := newTestElection(t, General)

		err := e.CastVote("", "")

		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.Equal(t, " is not registered", err.Error())
	})

	t.Run("failed votes do not write to the record", func(t *testing.T) {
		e := newTestElection(t, General)
		before := e.Record().Len()

		_ = e.CastVote("Alice", "Bob")

		assert.Equal(t, before, e.Record().Len())
	})
}

func TestElection_SecondVoteAlwaysRejected(t *testing.T) {
	for _, variant := range []Variant{General, Primary} {
		t.Run(variant.String(), func(t *testing.T) {
			e := newTestElection(t, variant)
			e.RegisterCandidate("Alice", "R")
			e.RegisterCandidate("Carl", "R")
			e.RegisterVoter("Bob", "R")
			require.NoError(t, e.CastVote("Alice", "Bob"))

			for _, candidate := range []string{"Alice", "Carl"} {
				err := e.CastVote(candidate, "Bob")
				assert.ErrorIs(t, err, ErrAlreadyVoted)
				assert.Equal(t, "Bob already voted", err.Error())
			}

			alice, _ := e.LookupCandidate("Alice")
			carl, _ := e.LookupCandidate("Carl")
			assert.Equal(t, 1, alice.Votes)
			assert.Equal(t, 0, carl.Votes)
		})
	}
}

func TestElection_PrimaryWrongParty(t *testing.T) {
	e := newTestElection(t, Primary)
	e.RegisterCandidate("Alice", "R")
	e.RegisterCandidate("Dana", "D")
	e.RegisterVoter("Bob", "D")
	e.RegisterVoter("Erin", "r")

	cases := []struct {
		name      string
		candidate string
		voter     string
		message   string
	}{
		{name: "different party", candidate: "Alice", voter: "Bob", message: "Bob cannot vote for a R"},
		{name: "party match is case sensitive", candidate: "Alice", voter: "Erin", message: "Erin cannot vote for a R"},
		{name: "other direction", candidate: "Dana", voter: "Erin", message: "Erin cannot vote for a D"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := e.Snapshot()
			recordLen := e.Record().Len()

			err := e.CastVote(c.candidate, c.voter)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrWrongParty)
			assert.Equal(t, c.message, err.Error())

			de, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, WrongParty, de.Kind)
			assert.Equal(t, c.voter, de.Name)

			assert.Equal(t, before, e.Snapshot())
			assert.Equal(t, recordLen, e.Record().Len())
		})
	}

	t.Run("same party is accepted", func(t *testing.T) {
		require.NoError(t, e.CastVote("Dana", "Bob"))
	})
}

func TestElection_PrimaryAlreadyVotedBeforeWrongParty(t *testing.T) {
	e := newTestElection(t, Primary)
	e.RegisterCandidate("Alice", "R")
	e.RegisterCandidate("Dana", "D")
	e.RegisterVoter("Bob", "D")
	require.NoError(t, e.CastVote("Dana", "Bob"))

	err := e.CastVote("Alice", "Bob")

	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestElection_GeneralNeverWrongParty(t *testing.T) {
	e := newTestElection(t, General)
	e.RegisterCandidate("Alice", "R")
	e.RegisterVoter("Bob", "D")

	assert.NoError(t, e.CastVote("Alice", "Bob"))
}

func TestElection_ListCandidates(t *testing.T) {
	setup := func(t *testing.T, variant Variant) *Election {
		e := newTestElection(t, variant)
		e.RegisterCandidate("Alice", "R")
		e.RegisterCandidate("Dana", "D")
		e.RegisterCandidate("Carl", "R")
		e.RegisterVoter("Bob", "R")
		return e
	}

	t.Run("general lists every candidate in registration order", func(t *testing.T) {
		e := setup(t, General)

		listed, err := e.ListCandidates("Bob")

		require.NoError(t, err)
		assert.Len(t, listed, 3)
		assert.Equal(t, []string{
			"Candidate list for Bob",
			"  1Alice",
			"  2Dana",
			"  3Carl",
		}, lastLines(e, 4))
	})

	t.Run("general does not require a registered voter", func(t *testing.T) {
		e := setup(t, General)

		listed, err := e.ListCandidates("Stranger")

		require.NoError(t, err)
		assert.Len(t, listed, 3)
		assert.Equal(t, "Candidate list for Stranger", lastLines(e, 4)[0])
	})

	t.Run("primary lists the voter's party only", func(t *testing.T) {
		e := setup(t, Primary)

		listed, err := e.ListCandidates("Bob")

		require.NoError(t, err)
		assert.Equal(t, []Candidate{{Name: "Alice", Party: "R"}, {Name: "Carl", Party: "R"}}, listed)
		assert.Equal(t, []string{
			"List for Bob",
			"  1Alice",
			"  2Carl",
		}, lastLines(e, 3))
	})

	t.Run("primary requires a registered voter", func(t *testing.T) {
		e := setup(t, Primary)
		before := e.Record().Len()

		listed, err := e.ListCandidates("Stranger")

		assert.Nil(t, listed)
		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.Equal(t, "Stranger is not registered", err.Error())
		assert.Equal(t, before, e.Record().Len())
	})

	t.Run("empty election lists only the header", func(t *testing.T) {
		e := newTestElection(t, General)

		listed, err := e.ListCandidates("Bob")

		require.NoError(t, err)
		assert.Empty(t, listed)
		assert.Equal(t, []string{"General Election", "Candidate list for Bob"}, e.Record().Lines())
	})
}

func TestElection_Tally(t *testing.T) {
	e := newTestElection(t, General)
	e.RegisterCandidate("Alice", "R")
	e.RegisterCandidate("Dana", "D")
	e.RegisterVoter("Bob", "R")
	e.RegisterVoter("Erin", "D")
	e.RegisterVoter("Finn", "D")
	require.NoError(t, e.CastVote("Dana", "Bob"))
	require.NoError(t, e.CastVote("Dana", "Erin"))
	require.NoError(t, e.CastVote("Alice", "Finn"))

	tally := e.Tally()

	assert.Equal(t, []Candidate{
		{Name: "Alice", Party: "R", Votes: 1},
		{Name: "Dana", Party: "D", Votes: 2},
	}, tally)
	assert.Equal(t, []string{
		"Tally",
		"  Alice (R) 1",
		"  Dana (D) 2",
	}, lastLines(e, 3))
}

func TestElection_Reset(t *testing.T) {
	e := newTestElection(t, Primary)
	e.RegisterCandidate("Alice", "R")
	e.RegisterVoter("Bob", "R")
	require.NoError(t, e.CastVote("Alice", "Bob"))

	e.Reset()
	once := e.Snapshot()
	e.Reset()
	twice := e.Snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, []Candidate{{Name: "Alice", Party: "R"}}, twice.Candidates)
	assert.Equal(t, []Voter{{Name: "Bob", Party: "R"}}, twice.Voters)
	assert.Equal(t, []string{"Reset", "Reset"}, lastLines(e, 2))

	t.Run("voters may vote again after reset", func(t *testing.T) {
		require.NoError(t, e.CastVote("Alice", "Bob"))
		c, _ := e.LookupCandidate("Alice")
		assert.Equal(t, 1, c.Votes)
	})
}

func TestElection_TallySumMatchesAcceptedVotes(t *testing.T) {
	e := newTestElection(t, Primary)
	e.RegisterCandidate("Alice", "R")
	e.RegisterCandidate("Dana", "D")
	voters := []struct{ name, party, choice string }{
		{"v1", "R", "Alice"},
		{"v2", "R", "Dana"}, // wrong party
		{"v3", "D", "Dana"},
		{"v4", "D", "Nobody"}, // not a candidate
		{"v1", "", "Alice"},   // re-registered, already voted
	}

	accepted := 0
	for _, v := range voters {
		e.RegisterVoter(v.name, v.party)
		if err := e.CastVote(v.choice, v.name); err == nil {
			accepted++
		}
	}
	_ = e.CastVote("Alice", "ghost")

	assert.Equal(t, 2, accepted)
	assert.Equal(t, accepted, e.Snapshot().TotalVotes())

	e.Reset()
	assert.Equal(t, 0, e.Snapshot().TotalVotes())

	require.NoError(t, e.CastVote("Dana", "v3"))
	assert.Equal(t, 1, e.Snapshot().TotalVotes())
}

func TestElection_DumpAddsNothing(t *testing.T) {
	e := newTestElection(t, General)
	e.RegisterVoter("Bob", "R")
	before := e.Record().Lines()

	e.Dump()

	assert.Equal(t, before, e.Record().Lines())
}

func TestElection_Exit(t *testing.T) {
	e := newTestElection(t, General)

	e.Exit()

	assert.True(t, e.Done())
	assert.Equal(t, []string{"Exit"}, lastLines(e, 1))
}

func TestError(t *testing.T) {
	cases := []struct {
		err      *Error
		message  string
		sentinel error
	}{
		{err: notRegistered("Ann"), message: "Ann is not registered", sentinel: ErrNotRegistered},
		{err: notACandidate("Ann"), message: "Ann is not a candidate", sentinel: ErrNotACandidate},
		{err: alreadyVoted("Ann"), message: "Ann already voted", sentinel: ErrAlreadyVoted},
		{err: wrongParty("Ann", "G"), message: "Ann cannot vote for a G", sentinel: ErrWrongParty},
	}

	for _, c := range cases {
		t.Run(c.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, c.message, c.err.LogMessage())
			assert.ErrorIs(t, c.err, c.sentinel)
			assert.True(t, IsDomainError(c.err))

			wrapped := errors.Join(errors.New("context"), c.err)
			assert.ErrorIs(t, wrapped, c.sentinel)
			assert.True(t, IsDomainError(wrapped))
		})
	}

	t.Run("kinds match only their own sentinel", func(t *testing.T) {
		assert.NotErrorIs(t, notRegistered("Ann"), ErrNotACandidate)
		assert.NotErrorIs(t, wrongParty("Ann", "R"), ErrAlreadyVoted)
	})

	t.Run("infrastructure errors are not domain errors", func(t *testing.T) {
		assert.False(t, IsDomainError(errors.New("disk on fire")))
		assert.False(t, IsDomainError(nil))
	})
}
