package server

import "math/rand/v2"

// generateAssignments maps every member to a target so that nobody is
// assigned to themselves. It draws uniformly random permutations and
// rejects those with fixed points, which keeps every derangement
// equally likely; the expected number of draws is e, independent of N.
func generateAssignments(memberIDs []int) (map[int]int, error) {
	if len(memberIDs) < 2 {
		return nil, errInvalidState("at least 2 members are required")
	}
	if len(memberIDs) == 2 {
		return map[int]int{
			memberIDs[0]: memberIDs[1],
			memberIDs[1]: memberIDs[0],
		}, nil
	}
	perm := make([]int, len(memberIDs))
	for {
		for i := range perm {
			perm[i] = i
		}
		rand.Shuffle(len(perm), func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})
		if hasFixedPoint(perm) {
			continue
		}
		assignments := make(map[int]int, len(memberIDs))
		for i, j := range perm {
			assignments[memberIDs[i]] = memberIDs[j]
		}
		return assignments, nil
	}
}

func hasFixedPoint(perm []int) bool {
	for i, j := range perm {
		if i == j {
			return true
		}
	}
	return false
}
