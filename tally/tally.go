// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"cmp"
	"math"
	"slices"

	"github.com/danielhkuo/quickly-elect/models"
)

// Count is the number of votes one candidate received
type Count struct {
	CandidateID string
	DisplayName string
	Votes       int
}

// Outcome is the result of Compute
type Outcome struct {
	TotalVotes int
	Results    []models.CandidateResult
	Winners    []models.CandidateResult
}

// Compute orders candidates by votes and finds the winner set.
//
// totalVotes is the size of the ledger, counted separately from the
// per-candidate rows. Equal counts are ordered by display name, then ID.
// Every candidate tied at the top is a winner; there are no winners
// when no votes were cast.
func Compute(totalVotes int, counts []Count) Outcome {
	results := make([]models.CandidateResult, 0, len(counts))
	for _, c := range counts {
		results = append(results, models.CandidateResult{
			CandidateID: c.CandidateID,
			DisplayName: c.DisplayName,
			Votes:       c.Votes,
			Percentage:  Percentage(c.Votes, totalVotes),
		})
	}

	slices.SortStableFunc(results, func(a, b models.CandidateResult) int {
		if a.Votes != b.Votes {
			return cmp.Compare(b.Votes, a.Votes)
		}
		if a.DisplayName != b.DisplayName {
			return cmp.Compare(a.DisplayName, b.DisplayName)
		}
		return cmp.Compare(a.CandidateID, b.CandidateID)
	})

	winners := []models.CandidateResult{}
	if totalVotes > 0 && len(results) > 0 && results[0].Votes > 0 {
		top := results[0].Votes
		for _, r := range results {
			if r.Votes != top {
				break
			}
			winners = append(winners, r)
		}
	}

	return Outcome{TotalVotes: totalVotes, Results: results, Winners: winners}
}

// Percentage is votes/total*100 rounded to 2 decimals, 0 when total is 0
func Percentage(votes, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(votes)/float64(total)*100*100) / 100
}
