package titlematch

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

var digitsPattern = regexp.MustCompile(`\b\d+\b`)

// Level buckets a similarity score.
type Level int

const (
	LevelNone   Level = iota // score < 0.70
	LevelLow                 // score >= 0.70
	LevelMedium              // score >= 0.85
	LevelHigh                // score >= 0.95
)

func (l Level) String() string {
	switch l {
	case LevelHigh:
		return "high"
	case LevelMedium:
		return "medium"
	case LevelLow:
		return "low"
	default:
		return "none"
	}
}

// LevelOf maps a score to its Level.
func LevelOf(score float64) Level {
	switch {
	case score >= 0.95:
		return LevelHigh
	case score >= 0.85:
		return LevelMedium
	case score >= 0.70:
		return LevelLow
	default:
		return LevelNone
	}
}

// Match is a scored candidate title.
type Match struct {
	Title string
	Score float64 // 0.0-1.0
	Level Level
}

// Score returns the Jaro-Winkler similarity of the folded query and title,
// nudged up when both carry the same sequel number and down when they differ.
func Score(query, title string) float64 {
	q, t := Fold(query), Fold(title)
	if q == "" || t == "" {
		return 0
	}
	score := float64(edlib.JaroWinklerSimilarity(q, t))
	return adjustForNumbers(score, digitsPattern.FindAllString(q, -1), digitsPattern.FindAllString(t, -1))
}

// Rate scores a single title against query.
func Rate(query, title string) Match {
	s := Score(query, title)
	return Match{Title: title, Score: s, Level: LevelOf(s)}
}

// Best returns the highest scoring candidate. Ties keep the earlier
// candidate. A best score below LevelLow yields a Match with no Title.
func Best(query string, candidates []string) Match {
	var best Match
	for _, c := range candidates {
		if m := Rate(query, c); m.Score > best.Score {
			best = m
		}
	}
	if best.Level == LevelNone {
		best.Title = ""
	}
	return best
}

func adjustForNumbers(score float64, queryNums, titleNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(titleNums) == 0 {
		return score * 0.85
	}
	want := make(map[string]struct{}, len(queryNums))
	for _, n := range queryNums {
		want[n] = struct{}{}
	}
	for _, n := range titleNums {
		if _, ok := want[n]; ok {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
