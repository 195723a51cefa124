package review

import (
	"sort"
	"strconv"

	"github.com/spigell/interviewer/internal/candidate"
)

// Candidates is the working list the review steps narrow down.
type Candidates struct {
	Items []*candidate.Candidate
}

func NewCandidates(items []*candidate.Candidate) *Candidates {
	return &Candidates{Items: append([]*candidate.Candidate(nil), items...)}
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

// Exclude removes every candidate matching drop and returns their ids.
// Order of the remaining candidates is preserved.
func (c *Candidates) Exclude(drop func(*candidate.Candidate) bool) []string {
	var excluded []string
	kept := c.Items[:0]
	for _, item := range c.Items {
		if drop(item) {
			excluded = append(excluded, item.ID)
			continue
		}
		kept = append(kept, item)
	}
	clear(c.Items[len(kept):])
	c.Items = kept
	return excluded
}

// SortByScore orders candidates by score, highest first. Unscored candidates
// go last. Ties keep their stored order.
func (c *Candidates) SortByScore() {
	sort.SliceStable(c.Items, func(i, j int) bool {
		a, b := c.Items[i].Score, c.Items[j].Score
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}

// Report flattens the candidates into rows for the dashboard.
func (c *Candidates) Report() []map[string]string {
	report := make([]map[string]string, 0, len(c.Items))
	for _, item := range c.Items {
		score := "-"
		if item.Score != nil {
			score = strconv.Itoa(*item.Score)
		}

		answered := 0
		for _, a := range item.Answers {
			if a != "" {
				answered++
			}
		}

		report = append(report, map[string]string{
			"id":       item.ID,
			"name":     item.Name,
			"email":    item.Email,
			"phone":    item.Phone,
			"score":    score,
			"answered": strconv.Itoa(answered) + "/" + strconv.Itoa(len(item.Answers)),
			"summary":  item.Summary,
		})
	}
	return report
}
