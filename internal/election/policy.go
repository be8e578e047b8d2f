package election

// Roll is the read-only view of the registration tables a Policy works against
type Roll interface {
	LookupVoter(name string) (Voter, error)
	Candidates() []Candidate
}

// Policy holds the rules that differ between election variants
type Policy interface {
	Variant() Variant
	// CheckEligibility decides whether v may vote for c. It returns AlreadyVoted or WrongParty errors.
	CheckEligibility(c Candidate, v Voter) error
	// VisibleCandidates returns, in registration order, the candidates voter may see in a listing
	VisibleCandidates(roll Roll, voter string) ([]Candidate, error)
	// ListHeader is the first line written for a listing
	ListHeader(voter string) string
}

// NewPolicy returns the Policy for variant. Unknown variants fall back to General rules.
func NewPolicy(variant Variant) Policy {
	if variant == Primary {
		return primaryPolicy{}
	}
	return generalPolicy{}
}

// generalPolicy only checks that a voter has not voted yet
type generalPolicy struct{}

func (generalPolicy) Variant() Variant { return General }

func (generalPolicy) CheckEligibility(_ Candidate, v Voter) error {
	if v.Voted {
		return alreadyVoted(v.Name)
	}
	return nil
}

// VisibleCandidates lists everyone. The voter does not have to be registered.
func (generalPolicy) VisibleCandidates(roll Roll, _ string) ([]Candidate, error) {
	return roll.Candidates(), nil
}

func (generalPolicy) ListHeader(voter string) string {
	return "Candidate list for " + voter
}

// primaryPolicy restricts voting and listings to the voter's own party
type primaryPolicy struct{}

func (primaryPolicy) Variant() Variant { return Primary }

func (primaryPolicy) CheckEligibility(c Candidate, v Voter) error {
	if v.Voted {
		return alreadyVoted(v.Name)
	}
	if !sameParty(c, v) {
		return wrongParty(v.Name, c.Party)
	}
	return nil
}

func (primaryPolicy) VisibleCandidates(roll Roll, voter string) ([]Candidate, error) {
	v, err := roll.LookupVoter(voter)
	if err != nil {
		return nil, err
	}

	visible := make([]Candidate, 0)
	for _, c := range roll.Candidates() {
		if sameParty(c, v) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (primaryPolicy) ListHeader(voter string) string {
	return "List for " + voter
}

// sameParty is an exact, case-sensitive comparison
func sameParty(c Candidate, v Voter) bool {
	return c.Party == v.Party
}
