package service

import (
	"github.com/google/uuid"
	"github.com/veritest/veritest-backend/internal/model"
)

// NextQuestion scans the exam's ordered question list for the first entry
// without a recorded answer. The returned index is the question's position
// in the original order, not the number of answers so far — answers may
// arrive out of order via bookmarking and navigation.
//
// When every question is answered it returns (-1, nil, true); completion
// here is the sole trigger for automatic finalization.
func NextQuestion(ordered []model.Question, answered map[uuid.UUID]struct{}) (int, *model.Question, bool) {
	for i := range ordered {
		if _, ok := answered[ordered[i].ID]; !ok {
			return i, &ordered[i], false
		}
	}
	return -1, nil, true
}

// answeredSet converts a list of answered question ids into a membership set.
func answeredSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
