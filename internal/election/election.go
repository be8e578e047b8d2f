package election

import (
	"fmt"

	"election-simulator/internal/audit"

	"github.com/google/uuid"
)

// Election is the in-memory state of one election run: the candidate and voter tables, the official record and the
// termination flag. An Election is owned by a single goroutine; none of its methods lock.
type Election struct {
	id         uuid.UUID
	policy     Policy
	candidates *registry[Candidate]
	voters     *registry[Voter]
	record     *audit.Log
	done       bool
}

// New creates an election of the given variant whose record is mirrored to sink. The variant banner is the first
// entry of the record.
func New(variant Variant, sink audit.Sink) *Election {
	e := &Election{
		id:         uuid.New(),
		policy:     NewPolicy(variant),
		candidates: newRegistry[Candidate](),
		voters:     newRegistry[Voter](),
		record:     audit.NewLog(sink),
	}
	e.record.Append(e.policy.Variant().String() + " Election")
	return e
}

// ID uniquely identifies this run of the election
func (e *Election) ID() uuid.UUID {
	return e.id
}

func (e *Election) Variant() Variant {
	return e.policy.Variant()
}

// Record returns the official record
func (e *Election) Record() *audit.Log {
	return e.record
}

// Done reports whether Exit has been called
func (e *Election) Done() bool {
	return e.done
}

// RegisterVoter adds a voter, or changes the party of one already registered. Votes already cast are kept.
func (e *Election) RegisterVoter(name, party string) {
	if v, ok := e.voters.get(name); ok {
		v.Party = party
		e.record.Append(fmt.Sprintf("%s affiliation changed to %s", name, party))
		return
	}

	e.voters.add(name, &Voter{Name: name, Party: party})
	e.record.Append(fmt.Sprintf("Register voter %s as a %s", name, party))
}

// RegisterCandidate adds a candidate, or changes the party of one already registered. The vote count is kept.
func (e *Election) RegisterCandidate(name, party string) {
	if c, ok := e.candidates.get(name); ok {
		c.Party = party
		e.record.Append(fmt.Sprintf("%s affiliation changed to %s", name, party))
		return
	}

	e.candidates.add(name, &Candidate{Name: name, Party: party})
	e.record.Append(fmt.Sprintf("Register candidate %s as a %s", name, party))
}

// CastVote records a vote by voter for candidate. Every check runs before anything is changed, so a failed vote
// leaves the election exactly as it was.
func (e *Election) CastVote(candidate, voter string) error {
	v, ok := e.voters.get(voter)
	if !ok {
		return notRegistered(voter)
	}

	c, ok := e.candidates.get(candidate)
	if !ok {
		return notACandidate(candidate)
	}

	if err := e.policy.CheckEligibility(*c, *v); err != nil {
		return err
	}

	c.Votes++
	v.Voted = true
	e.record.Append(fmt.Sprintf("%s voted for %s", voter, candidate))
	return nil
}

// ListCandidates writes the numbered list of candidates voter may choose from and returns it
func (e *Election) ListCandidates(voter string) ([]Candidate, error) {
	visible, err := e.policy.VisibleCandidates(e, voter)
	if err != nil {
		return nil, err
	}

	e.record.Append(e.policy.ListHeader(voter))
	for i, c := range visible {
		e.record.Append(fmt.Sprintf("  %d%s", i+1, c.Name))
	}
	return visible, nil
}

// Tally writes the vote count of every candidate and returns the counts
func (e *Election) Tally() []Candidate {
	e.record.Append("Tally")
	tally := e.Candidates()
	for _, c := range tally {
		e.record.Append(fmt.Sprintf("  %s (%s) %d", c.Name, c.Party, c.Votes))
	}
	return tally
}

// Reset zeroes every vote count and lets every voter vote again. Registrations and parties survive.
func (e *Election) Reset() {
	e.record.Append("Reset")
	e.candidates.each(func(c *Candidate) {
		c.Votes = 0
	})
	e.voters.each(func(v *Voter) {
		v.Voted = false
	})
}

// Dump replays the official record through its sink without adding to it
func (e *Election) Dump() {
	e.record.Dump()
}

// Exit ends the election. No further commands are processed after it.
func (e *Election) Exit() {
	e.done = true
	e.record.Append("Exit")
}

// LookupVoter returns a copy of the named voter
func (e *Election) LookupVoter(name string) (Voter, error) {
	v, ok := e.voters.get(name)
	if !ok {
		return Voter{}, notRegistered(name)
	}
	return *v, nil
}

// LookupCandidate returns a copy of the named candidate
func (e *Election) LookupCandidate(name string) (Candidate, error) {
	c, ok := e.candidates.get(name)
	if !ok {
		return Candidate{}, notACandidate(name)
	}
	return *c, nil
}

// Candidates returns copies of all candidates in registration order
func (e *Election) Candidates() []Candidate {
	out := make([]Candidate, 0, e.candidates.len())
	e.candidates.each(func(c *Candidate) {
		out = append(out, *c)
	})
	return out
}

// Voters returns copies of all voters in registration order
func (e *Election) Voters() []Voter {
	out := make([]Voter, 0, e.voters.len())
	e.voters.each(func(v *Voter) {
		out = append(out, *v)
	})
	return out
}

// Snapshot is a point-in-time copy of both registration tables
type Snapshot struct {
	Candidates []Candidate
	Voters     []Voter
}

func (e *Election) Snapshot() Snapshot {
	return Snapshot{
		Candidates: e.Candidates(),
		Voters:     e.Voters(),
	}
}

// TotalVotes sums the vote counts of all candidates
func (s Snapshot) TotalVotes() int {
	total := 0
	for _, c := range s.Candidates {
		total += c.Votes
	}
	return total
}
