package command

import "strings"

// Tag is the four-letter type code at the start of a command line
type Tag string

const (
	TagVote      Tag = "VOTE"
	TagRegister  Tag = "RGST"
	TagReset     Tag = "REST"
	TagCandidate Tag = "CAND"
	TagList      Tag = "LIST"
	TagTally     Tag = "TLLY"
	TagDump      Tag = "DUMP"
	TagExit      Tag = "EXIT"
)

// Arity returns how many <value> arguments a command with this tag takes
func (t Tag) Arity() int {
	switch t {
	case TagVote, TagRegister, TagCandidate:
		return 2
	case TagList:
		return 1
	default:
		return 0
	}
}

// Command is one parsed request. The set of implementations is closed: Vote, Register, Reset, Candidate, List,
// Tally, Dump and Exit.
type Command interface {
	Tag() Tag
	// String renders the command back into its canonical line form
	String() string
	sealed()
}

// Vote asks to record a vote by Voter for Candidate
type Vote struct {
	Candidate string
	Voter     string
}

// Register asks to register Voter, or change their party
type Register struct {
	Voter string
	Party string
}

// Reset asks to zero all counts and voted flags
type Reset struct{}

// Candidate asks to register a candidate, or change their party
type Candidate struct {
	Name  string
	Party string
}

// List asks for the candidates available to Voter
type List struct {
	Voter string
}

// Tally asks for the vote count of every candidate
type Tally struct{}

// Dump asks for a replay of the official record
type Dump struct{}

// Exit ends the election
type Exit struct{}

func (Vote) Tag() Tag      { return TagVote }
func (Register) Tag() Tag  { return TagRegister }
func (Reset) Tag() Tag     { return TagReset }
func (Candidate) Tag() Tag { return TagCandidate }
func (List) Tag() Tag      { return TagList }
func (Tally) Tag() Tag     { return TagTally }
func (Dump) Tag() Tag      { return TagDump }
func (Exit) Tag() Tag      { return TagExit }

func (c Vote) String() string      { return format(c.Tag(), c.Candidate, c.Voter) }
func (c Register) String() string  { return format(c.Tag(), c.Voter, c.Party) }
func (c Reset) String() string     { return format(c.Tag()) }
func (c Candidate) String() string { return format(c.Tag(), c.Name, c.Party) }
func (c List) String() string      { return format(c.Tag(), c.Voter) }
func (c Tally) String() string     { return format(c.Tag()) }
func (c Dump) String() string      { return format(c.Tag()) }
func (c Exit) String() string      { return format(c.Tag()) }

func (Vote) sealed()      {}
func (Register) sealed()  {}
func (Reset) sealed()     {}
func (Candidate) sealed() {}
func (List) sealed()      {}
func (Tally) sealed()     {}
func (Dump) sealed()      {}
func (Exit) sealed()      {}

func format(tag Tag, args ...string) string {
	if len(args) == 0 {
		return string(tag)
	}

	var b strings.Builder
	b.WriteString(string(tag))
	b.WriteByte(' ')
	for _, a := range args {
		b.WriteByte('<')
		b.WriteString(a)
		b.WriteByte('>')
	}
	return b.String()
}
