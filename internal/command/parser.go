package command

import "strings"

// Parse turns one input line into a Command. The boolean is false when the line is not a recognized command; such
// lines are meant to be dropped without an error.
//
// Only the first character selects the command, except for 'R' where the second character tells RGST from REST.
// Arguments are the <value> tokens found scanning left to right. A command that expects more arguments than the line
// carries gets empty strings for the missing ones; whether those are valid is decided when the command runs.
func Parse(line string) (Command, bool) {
	if line == "" {
		return nil, false
	}

	switch line[0] {
	case 'V':
		args := scanArgs(line, TagVote.Arity())
		return Vote{Candidate: args[0], Voter: args[1]}, true
	case 'R':
		if len(line) < 2 {
			return nil, false
		}
		switch line[1] {
		case 'G':
			args := scanArgs(line, TagRegister.Arity())
			return Register{Voter: args[0], Party: args[1]}, true
		case 'E':
			return Reset{}, true
		default:
			return nil, false
		}
	case 'C':
		args := scanArgs(line, TagCandidate.Arity())
		return Candidate{Name: args[0], Party: args[1]}, true
	case 'L':
		args := scanArgs(line, TagList.Arity())
		return List{Voter: args[0]}, true
	case 'T':
		return Tally{}, true
	case 'D':
		return Dump{}, true
	case 'E':
		return Exit{}, true
	default:
		return nil, false
	}
}

// scanArgs extracts up to n <value> tokens. Scanning stops at the first '<' that has no '>' after it.
func scanArgs(line string, n int) []string {
	args := make([]string, n)

	start := strings.IndexByte(line, '<')
	end := strings.IndexByte(line, '>')
	for count := 0; count < n && start >= 0 && start < end; count++ {
		args[count] = line[start+1 : end]

		next := strings.IndexByte(line[end:], '<')
		if next < 0 {
			break
		}
		start = end + next

		closing := strings.IndexByte(line[start:], '>')
		if closing < 0 {
			break
		}
		end = start + closing
	}

	return args
}
