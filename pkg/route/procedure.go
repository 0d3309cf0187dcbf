package route

import (
	"regexp"
	"strings"

	"github.com/unklstewy/routewatch/internal/db"
)

// MatchRank is the strongest way a filed token matched a procedure.
type MatchRank int

const (
	NoMatch MatchRank = iota
	PrefixMatch
	TokenMatch
	ExactMatch
)

func (r MatchRank) String() string {
	switch r {
	case ExactMatch:
		return "exact"
	case TokenMatch:
		return "token"
	case PrefixMatch:
		return "prefix"
	default:
		return "none"
	}
}

// Score weights. A candidate's score is the sum of every component it meets.
const (
	scoreExact  = 100 // token before "/" equals procedure+transition
	scoreToken  = 50  // whole token equals procedure+transition
	scorePrefix = 10  // leading letters equal the start of procedure+transition
	scoreSuffix = 5   // digits-onward part ends procedure+transition
)

// ProcedureMatch is the outcome of ranking one candidate.
type ProcedureMatch struct {
	Procedure db.Procedure
	Rank      MatchRank
	Score     int
}

var procTokenRe = regexp.MustCompile(`^([A-Z]+?)(\d.*)?$`)

// RankProcedure scores how well a filed token names a procedure.
// Comparisons ignore case except for the numeric suffix.
func RankProcedure(token string, p db.Procedure) ProcedureMatch {
	raw := baseIdent(token)
	prefix, suffix := raw, ""
	if m := procTokenRe.FindStringSubmatch(raw); m != nil {
		prefix, suffix = m[1], m[2]
	}

	key := p.Key()
	match := ProcedureMatch{Procedure: p}

	if strings.EqualFold(raw, key) {
		match.Score += scoreExact
		match.Rank = max(match.Rank, ExactMatch)
	}
	if strings.EqualFold(token, key) {
		match.Score += scoreToken
		match.Rank = max(match.Rank, TokenMatch)
	}
	if prefix != "" && len(prefix) <= len(key) && strings.EqualFold(prefix, key[:len(prefix)]) {
		match.Score += scorePrefix
		match.Rank = max(match.Rank, PrefixMatch)
	}
	if suffix != "" && strings.HasSuffix(key, suffix) {
		match.Score += scoreSuffix
		match.Rank = max(match.Rank, PrefixMatch)
	}

	return match
}

// Better reports whether m should replace the current best. Ties keep
// the earlier candidate.
func (m ProcedureMatch) Better(best ProcedureMatch) bool {
	return m.Score > best.Score
}

// SelectProcedure picks the best-scoring candidate for token. When nothing
// scores, it falls back to the first candidate whose procedure ID equals
// the token before any "/", ignoring case and transition.
func SelectProcedure(token string, candidates []db.Procedure) (db.Procedure, bool) {
	var best ProcedureMatch
	for _, c := range candidates {
		if m := RankProcedure(token, c); m.Better(best) {
			best = m
		}
	}
	if best.Score > 0 {
		return best.Procedure, true
	}
	return procedureByID(baseIdent(token), candidates)
}

// procedureByID returns the first candidate named id with its transition
// cleared, so that every transition's legs are loaded.
func procedureByID(id string, candidates []db.Procedure) (db.Procedure, bool) {
	for _, c := range candidates {
		if strings.EqualFold(c.ID, id) {
			return db.Procedure{ID: c.ID, AllTransitions: true}, true
		}
	}
	return db.Procedure{}, false
}
