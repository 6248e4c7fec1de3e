package domain

import "fmt"

// TransitionPolicy decides whether a status change is permitted.
type TransitionPolicy interface {
	Allow(from, to ReviewStatus) error
}

// OpenTransitions accepts any target status, including blank, from any state.
type OpenTransitions struct{}

func (OpenTransitions) Allow(_, _ ReviewStatus) error {
	return nil
}

// StrictTransitions only allows pending records to move to approved or rejected.
type StrictTransitions struct{}

var strictEdges = map[ReviewStatus][]ReviewStatus{
	ReviewStatusPending: {ReviewStatusApproved, ReviewStatusRejected},
}

func (StrictTransitions) Allow(from, to ReviewStatus) error {
	for _, allowed := range strictEdges[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}
