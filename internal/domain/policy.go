package domain

import (
	"fmt"
	"strings"
)

// Policy decides what happens when an identity submits a second rating or reaction
// for the same movie.
type Policy string

const (
	// PolicyLocked rejects every duplicate submission.
	PolicyLocked Policy = "locked"
	// PolicySingleEdit allows exactly one edit of a rating.
	PolicySingleEdit Policy = "single-edit"
	// PolicyUpsert accepts every resubmission as an edit and toggles reactions.
	PolicyUpsert Policy = "upsert"
)

// MaxRatingEdits is the number of edits allowed under PolicySingleEdit.
const MaxRatingEdits = 1

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(v string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(v))); p {
	case PolicyLocked, PolicySingleEdit, PolicyUpsert:
		return p, nil
	case "":
		return PolicyLocked, nil
	}
	return "", fmt.Errorf("unknown rating policy %q", v)
}
