package quarantine

import (
	"tally/contexts/results-processing/result-form-service/domain/entities"
)

const (
	MethodOvervote              = "pass_overvote"
	MethodTampering             = "pass_tampering"
	MethodBallotsNumber         = "pass_ballots_number_validation"
	MethodSignatures            = "pass_signatures_validation"
	MethodBallotsInsideBox      = "pass_ballots_inside_box_validation"
	MethodSumOfCandidatesVotes  = "pass_sum_of_candidates_votes_validation"
	MethodInvalidBallotsPercent = "pass_invalid_ballots_percentage_validation"
	MethodTurnoutPercentage     = "pass_turnout_percentage_validation"
)

var builtins = []struct {
	method    string
	predicate Predicate
}{
	{MethodOvervote, PassOvervote},
	{MethodTampering, PassTampering},
	{MethodBallotsNumber, PassBallotsNumber},
	{MethodSignatures, PassSignatures},
	{MethodBallotsInsideBox, PassBallotsInsideBox},
	{MethodSumOfCandidatesVotes, PassSumOfCandidatesVotes},
	{MethodInvalidBallotsPercent, PassInvalidBallotsPercentage},
	{MethodTurnoutPercentage, PassTurnoutPercentage},
}

// DefaultChecks are the seed rows for a new tally. Only overvote and
// tampering are active.
func DefaultChecks() []entities.QuarantineCheck {
	return []entities.QuarantineCheck{
		{Name: "Overvote", Method: MethodOvervote, Value: 10, Percentage: 90, Active: true,
			Description: "ballots used must not exceed station registrants plus tolerance"},
		{Name: "Tampering", Method: MethodTampering, Value: 3, Active: true,
			Description: "candidate votes must match expected ballots within tolerance percent"},
		{Name: "Ballots number", Method: MethodBallotsNumber, Value: 3,
			Description: "ballots received must match ballots inside and outside the box"},
		{Name: "Signatures", Method: MethodSignatures, Value: 3,
			Description: "voter register signatures must match ballots inside the box plus cancelled"},
		{Name: "Ballots inside box", Method: MethodBallotsInsideBox, Value: 3,
			Description: "entered ballots inside box must match valid, invalid and unstamped"},
		{Name: "Sum of candidates votes", Method: MethodSumOfCandidatesVotes, Value: 3,
			Description: "candidate votes must match valid votes"},
		{Name: "Invalid ballots percentage", Method: MethodInvalidBallotsPercent, Percentage: 20,
			Description: "invalid ballots must not exceed percentage of ballots inside the box"},
		{Name: "Turnout percentage", Method: MethodTurnoutPercentage, Percentage: 100,
			Description: "ballots used must not exceed percentage of registrants"},
	}
}

// PassOvervote fails when valid plus invalid exceeds registrants plus Value.
// Forms without registrants or reconciliation pass.
func PassOvervote(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil || in.Registrants == nil {
		return true
	}
	used := float64(recon[entities.ReconNumberValidVotes] + recon[entities.ReconNumberInvalidVotes])
	return used <= float64(*in.Registrants)+check.Value
}

// PassTampering fails when the candidate vote sum differs from the expected
// ballots (voters minus invalid) by more than Value percent of their total.
func PassTampering(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil {
		return true
	}
	sum := float64(in.VoteSum())
	expected := float64(recon[entities.ReconNumberOfVoters] - recon[entities.ReconNumberInvalidVotes])
	return withinRelative(sum, expected, check.Value, 1)
}

func PassBallotsNumber(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil {
		return true
	}
	received := float64(recon[entities.ReconNumberBallotsReceived])
	counted := float64(recon[entities.ReconNumberBallotsInsideBox] + recon[entities.ReconNumberBallotsOutsideBox])
	return withinRelative(received, counted, check.Value, 2)
}

func PassSignatures(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil {
		return true
	}
	signatures := float64(recon[entities.ReconNumberSignaturesInVR])
	accounted := float64(ballotsInsideTheBox(recon) + recon[entities.ReconNumberCancelledBallots])
	return withinRelative(signatures, accounted, check.Value, 2)
}

func PassBallotsInsideBox(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil {
		return true
	}
	entered := float64(recon[entities.ReconNumberBallotsInsideBox])
	sorted := float64(ballotsInsideTheBox(recon))
	return withinRelative(entered, sorted, check.Value, 2)
}

func PassSumOfCandidatesVotes(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil {
		return true
	}
	return withinRelative(float64(in.VoteSum()), float64(recon[entities.ReconNumberValidVotes]), check.Value, 2)
}

// PassInvalidBallotsPercentage compares invalid ballots against the ballots
// sorted from the box. An empty box passes.
func PassInvalidBallotsPercentage(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil {
		return true
	}
	inside := ballotsInsideTheBox(recon)
	if inside == 0 {
		return true
	}
	percent := float64(recon[entities.ReconNumberInvalidVotes]) * 100 / float64(inside)
	return percent <= check.Percentage
}

func PassTurnoutPercentage(check entities.QuarantineCheck, in Input) bool {
	recon := in.Recon()
	if recon == nil || in.Registrants == nil || *in.Registrants == 0 {
		return true
	}
	percent := float64(recon.BallotsUsed()) * 100 / float64(*in.Registrants)
	return percent <= check.Percentage
}

// ballotsInsideTheBox is valid + invalid + unstamped.
func ballotsInsideTheBox(recon entities.ReconValues) int {
	return recon[entities.ReconNumberValidVotes] +
		recon[entities.ReconNumberInvalidVotes] +
		recon[entities.ReconNumberUnstampedBallots]
}

// withinRelative reports |a-b| <= tolerance% of (a+b)/divisor. Comparing
// cross-multiplied keeps the boundary exact.
func withinRelative(a, b, tolerance, divisor float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff*100*divisor <= tolerance*(a+b)
}
