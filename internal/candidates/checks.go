package candidates

import "fmt"

// check is one step of the shortlist contract. Checks run in order and the
// first failure wins.
type check struct {
	name string
	run  func() error
}

func runChecks(checks []check) error {
	for _, c := range checks {
		if err := c.run(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSchemaViolation, c.name, err)
		}
	}
	return nil
}

func initialChecks(list []Initial) []check {
	scores := make([]int, len(list))
	ids := make([]int, len(list))
	for i, c := range list {
		scores[i] = c.Score
		ids[i] = c.CandidateID
	}

	return []check{
		{name: "limit", run: func() error { return atMost(len(list), MaxInitial) }},
		{name: "score range", run: func() error { return inRange(scores) }},
		{name: "order", run: func() error { return nonIncreasing(scores) }},
		{name: "unique ids", run: func() error { return unique(ids) }},
	}
}

func finalChecks(list []Final, initial []Initial) []check {
	scores := make([]int, len(list))
	ids := make([]int, len(list))
	for i, c := range list {
		scores[i] = c.FinalScore
		ids[i] = c.CandidateID
	}

	return []check{
		{name: "limit", run: func() error { return atMost(len(list), MaxFinal) }},
		{name: "score range", run: func() error { return inRange(scores) }},
		{name: "order", run: func() error { return nonIncreasing(scores) }},
		{name: "unique ids", run: func() error { return unique(ids) }},
		{name: "known ids", run: func() error {
			for _, id := range ids {
				if _, ok := Find(initial, id); !ok {
					return fmt.Errorf("candidate %d was not in the first-pass shortlist", id)
				}
			}
			return nil
		}},
	}
}

func atMost(n, limit int) error {
	if n > limit {
		return fmt.Errorf("got %d candidates, at most %d allowed", n, limit)
	}
	return nil
}

func inRange(scores []int) error {
	for _, s := range scores {
		if s < 0 || s > 100 {
			return fmt.Errorf("score %d outside 0-100", s)
		}
	}
	return nil
}

func nonIncreasing(scores []int) error {
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[i-1] {
			return fmt.Errorf("score %d at position %d is above %d", scores[i], i, scores[i-1])
		}
	}
	return nil
}

func unique(ids []int) error {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("candidate id %d repeated", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
