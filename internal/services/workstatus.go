package services

import (
	"reelworks/studio/internal/models"
)

// StreamBillability says whether a work stream can be charged right now.
type StreamBillability int

const (
	NotApplicable StreamBillability = iota
	NotYet
	BillableNow
)

// WorkLabel is a human-readable tag for one stream's progress, used to
// compose invoice line descriptions.
type WorkLabel struct {
	Stream string // "filming", "editing", "design", "review"
	State  models.WorkState
}

// WorkClassification is the pure result of inspecting a project's
// status fields: which streams have progressed, and whether video and
// design work are chargeable yet.
type WorkClassification struct {
	Labels []WorkLabel // completed or in-progress streams only
	Video  StreamBillability
	Design StreamBillability
}

// HasVideoWork reports whether the project has any chargeable-in-principle
// video stream. Design-kind projects never bill video work.
func HasVideoWork(p *models.Project) bool {
	if p.Kind() == models.KindDesign {
		return false
	}
	if _, ok := ParseDurationMinutes(p.VideoDuration); ok {
		return true
	}
	switch p.Editing() {
	case models.WorkCompleted, models.WorkInProgress:
		return true
	}
	return p.Filming() == models.WorkCompleted
}

// HasDesignWork reports whether any design activity is detected. Design
// is charged as soon as work starts, completed or not.
func HasDesignWork(p *models.Project) bool {
	switch p.Design() {
	case models.WorkCompleted, models.WorkInProgress:
		return true
	}
	return false
}

// IsBillable implements the invoicing inclusion rule: a project is
// billable iff it is not an enhancement and has at least one of filming
// complete, editing started, design started, review complete, or
// delivered files.
func IsBillable(p *models.Project) bool {
	if p.IsEnhancement() {
		return false
	}
	if p.Filming() == models.WorkCompleted || p.Review() == models.WorkCompleted {
		return true
	}
	switch p.Editing() {
	case models.WorkCompleted, models.WorkInProgress:
		return true
	}
	if HasDesignWork(p) {
		return true
	}
	return len(p.FileLinks) > 0
}

// ClassifyWork inspects a project's status fields and reports which
// work streams contribute to its invoice. Pure function, no side
// effects.
func ClassifyWork(p *models.Project) WorkClassification {
	var c WorkClassification

	streams := []struct {
		name  string
		state models.WorkState
	}{
		{"filming", p.Filming()},
		{"editing", p.Editing()},
		{"design", p.Design()},
		{"review", p.Review()},
	}
	for _, s := range streams {
		if s.state == models.WorkCompleted || s.state == models.WorkInProgress {
			c.Labels = append(c.Labels, WorkLabel{Stream: s.name, State: s.state})
		}
	}

	if p.Kind() == models.KindDesign {
		c.Video = NotApplicable
	} else if HasVideoWork(p) {
		if _, ok := ParseDurationMinutes(p.VideoDuration); ok {
			c.Video = BillableNow
		} else {
			c.Video = NotYet
		}
	} else {
		c.Video = NotApplicable
	}

	if HasDesignWork(p) {
		c.Design = BillableNow // intentional asymmetry: design bills on any activity
	} else {
		c.Design = NotApplicable
	}

	return c
}
