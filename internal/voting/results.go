package voting

import (
	"sort"
)

type ChoiceResult struct {
	ChoiceId   int     `json:"choice_id"`
	Name       string  `json:"name"`
	VoteCount  int     `json:"vote_count"`
	Percentage float64 `json:"percentage"`
	IsWinner   bool    `json:"is_winner"`
}

type Results struct {
	MotionId                       int            `json:"motion_id"`
	SeatCount                      int            `json:"seat_count"`
	TotalVotesIncludingAbstentions int            `json:"total_votes_including_abstentions"`
	AbstentionCount                int            `json:"abstention_count"`
	TotalVotesForChoices           int            `json:"total_votes_for_choices"`
	ChoiceResults                  []ChoiceResult `json:"choice_results"`
	EligibleVoters                 int            `json:"eligible_voters"`
	ParticipationRate              float64        `json:"participation_rate"`
}

// DetailedResults computes the full tally for a completed motion. Choices
// are ranked by vote count descending; ties are broken by ascending choice
// id, a deterministic rule rather than a dependence on sort stability. The
// top seat_count choices are the winners.
func (e *Engine) DetailedResults(motionId int) (Results, error) {
	motion, err := e.db.GetMotionById(motionId)
	if err != nil {
		return Results{}, translateNoRows(err)
	}

	if Status(motion.Status) != StatusVotingComplete {
		return Results{}, ErrResultsNotAvailable
	}

	totals, err := e.db.GetVoteTotals(motionId)
	if err != nil {
		return Results{}, err
	}

	tallies, err := e.db.GetChoiceTallies(motionId)
	if err != nil {
		return Results{}, err
	}

	poolId, err := e.EffectivePoolId(motion)
	if err != nil {
		return Results{}, err
	}

	eligible, err := e.db.CountPoolMembers(poolId)
	if err != nil {
		return Results{}, err
	}

	forChoices := totals.TotalVotes - totals.Abstaining

	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].VoteCount != tallies[j].VoteCount {
			return tallies[i].VoteCount > tallies[j].VoteCount
		}
		return tallies[i].ChoiceId < tallies[j].ChoiceId
	})

	choiceResults := make([]ChoiceResult, 0, len(tallies))
	for i, t := range tallies {
		choiceResults = append(choiceResults, ChoiceResult{
			ChoiceId:   t.ChoiceId,
			Name:       t.Name,
			VoteCount:  t.VoteCount,
			Percentage: percentage(t.VoteCount, forChoices),
			IsWinner:   i < motion.SeatCount,
		})
	}

	return Results{
		MotionId:                       motion.Id,
		SeatCount:                      motion.SeatCount,
		TotalVotesIncludingAbstentions: totals.TotalVotes,
		AbstentionCount:                totals.Abstaining,
		TotalVotesForChoices:           forChoices,
		ChoiceResults:                  choiceResults,
		EligibleVoters:                 eligible,
		ParticipationRate:              percentage(totals.TotalVotes, eligible),
	}, nil
}
