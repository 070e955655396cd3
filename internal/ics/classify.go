package ics

import (
	"strings"

	"studycal/internal/model"
)

// Classifier assigns a display category to ICS events, which carry no
// category field of their own, by matching configured keywords against
// the event summary.
type Classifier struct {
	keywords map[model.Category][]string
}

// NewClassifier builds a Classifier from a config-shaped keyword map
// (category name -> summary keywords). Unknown category names are
// ignored; matching is case-insensitive substring.
func NewClassifier(raw map[string][]string) *Classifier {
	kw := make(map[model.Category][]string, len(raw))
	for name, words := range raw {
		cat := model.ParseCategory(name)
		if cat == model.CategoryOther {
			continue
		}
		lowered := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				lowered = append(lowered, w)
			}
		}
		kw[cat] = lowered
	}
	return &Classifier{keywords: kw}
}

// classifyOrder fixes the match precedence so overlapping keyword sets
// resolve deterministically.
var classifyOrder = []model.Category{
	model.CategoryDeadline,
	model.CategoryLab,
	model.CategoryTutorial,
	model.CategoryLecture,
}

// Classify returns the category for an event summary, or CategoryOther
// when no keyword matches.
func (c *Classifier) Classify(summary string) model.Category {
	if c == nil || len(c.keywords) == 0 {
		return model.CategoryOther
	}
	s := strings.ToLower(summary)
	for _, cat := range classifyOrder {
		for _, w := range c.keywords[cat] {
			if strings.Contains(s, w) {
				return cat
			}
		}
	}
	return model.CategoryOther
}
