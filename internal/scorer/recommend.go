package scorer

import (
	"sort"

	"github.com/ndmokit/ndmokit/internal/model"
)

// recommend derives one recommendation per failing standard, critical
// failures first, then by descending weight, then by ID for determinism.
func (sc *Scorer) recommend(a model.Assessment) []model.Recommendation {
	var recs []model.Recommendation
	for _, std := range sc.reg.All() {
		res, ok := a.Results[std.ID]
		if !ok || res.Passed {
			continue
		}
		msg := std.Requirement
		if res.Message != "" {
			msg = std.Requirement + ": " + res.Message
		}
		recs = append(recs, model.Recommendation{
			StandardID: std.ID,
			Category:   string(std.Category),
			Message:    msg,
			Critical:   std.Critical,
			Weight:     std.Weight,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Critical != recs[j].Critical {
			return recs[i].Critical
		}
		if recs[i].Weight != recs[j].Weight {
			return recs[i].Weight > recs[j].Weight
		}
		return recs[i].StandardID < recs[j].StandardID
	})
	return recs
}
