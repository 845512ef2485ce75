package persistence

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
)

// Source names where a kind's entities came from after a merge.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceEmpty    Source = "empty"
)

// KindReport is the merge decision for one kind.
type KindReport struct {
	Source   Source
	Primary  int
	Fallback int
}

// MergeReport records the decision for every kind.
type MergeReport map[models.Kind]KindReport

// String renders the report as "vehicles=primary(p3/f1) purchases=fallback(p0/f2) ...",
// naming the chosen source and the count each store held.
func (r MergeReport) String() string {
	parts := make([]string, 0, len(models.AllKinds))
	for _, k := range models.AllKinds {
		kr := r[k]
		parts = append(parts, fmt.Sprintf("%s=%s(p%d/f%d)", k, kr.Source, kr.Primary, kr.Fallback))
	}
	return strings.Join(parts, " ")
}

// Merge reconciles the two stores kind by kind: a non-empty primary
// collection wins, otherwise a non-empty fallback collection, otherwise
// the kind is empty. Collections are never combined. Either snapshot may
// be nil when its store could not be read.
func Merge(primary, fallback models.Snapshot) (models.Snapshot, MergeReport) {
	out := models.NewSnapshot()
	report := make(MergeReport, len(models.AllKinds))

	for _, k := range models.AllKinds {
		p, f := primary[k], fallback[k]
		kr := KindReport{Source: SourceEmpty, Primary: len(p), Fallback: len(f)}

		var chosen []models.Entity
		switch {
		case len(p) > 0:
			chosen, kr.Source = p, SourcePrimary
		case len(f) > 0:
			chosen, kr.Source = f, SourceFallback
		}
		for _, e := range chosen {
			out[k] = append(out[k], e.Clone())
		}
		report[k] = kr
	}
	return out, report
}
