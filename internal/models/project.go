package models

import (
	"strings"
	"time"
)

// WorkState is the canonical state of a single work stream (filming,
// editing, design, review). Upstream project documents carry localized
// sentinel strings; those are a presentation/storage concern and are
// mapped to this enum at the model boundary.
type WorkState int

const (
	WorkNotStarted WorkState = iota
	WorkInProgress
	WorkCompleted
)

func (w WorkState) String() string {
	switch w {
	case WorkInProgress:
		return "in_progress"
	case WorkCompleted:
		return "completed"
	default:
		return "not_started"
	}
}

// ParseWorkState maps a raw status string from a project document to a
// WorkState. The upstream app stores Arabic sentinels; English synonyms
// are accepted for imported/legacy rows. Anything unrecognized counts
// as not started.
func ParseWorkState(raw string) WorkState {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "تم الانتهاء منه", "مكتمل", "completed", "done":
		return WorkCompleted
	case "قيد التنفيذ", "جاري العمل", "in progress", "in_progress":
		return WorkInProgress
	}
	// "في الانتظار" (waiting) and "لم يبدأ" (not started) both land here.
	return WorkNotStarted
}

// ProjectKind classifies a project for pricing. Detection is keyword
// based because upstream type strings vary freely ("تصاميم الصور
// المصغرة", "thumbnail designs (variant)", ...).
type ProjectKind int

const (
	KindOther ProjectKind = iota
	KindLongVideo
	KindShortVideo
	KindPromo
	KindDesign
)

var kindKeywords = []struct {
	kind     ProjectKind
	keywords []string
}{
	{KindDesign, []string{"design", "thumbnail", "تصميم", "تصاميم", "مصغرة"}},
	{KindLongVideo, []string{"long", "طويلة"}},
	{KindShortVideo, []string{"short", "قصيرة"}},
	{KindPromo, []string{"ad", "promo", "إعلان", "اعلان", "ترويج"}},
}

// enhancementMarkers identify upgrade/revision projects, which are not
// billable on their own.
var enhancementMarkers = []string{"enhancement", "تحسين"}

// Project is a unit of billable work. It is owned by the project
// management side of the application; billing reads it and never writes
// to it.
type Project struct {
	Base          `bson:",inline"`
	ClientID      string     `bson:"client_id" json:"client_id"`
	Title         string     `bson:"title" json:"title"`
	Type          string     `bson:"type" json:"type"` // raw upstream type string, see Kind()
	VideoDuration string     `bson:"video_duration,omitempty" json:"video_duration,omitempty"`
	FilmingStatus string     `bson:"filming_status,omitempty" json:"filming_status,omitempty"`
	EditMode      string     `bson:"edit_mode,omitempty" json:"edit_mode,omitempty"`
	DesignMode    string     `bson:"design_mode,omitempty" json:"design_mode,omitempty"`
	ReviewMode    string     `bson:"review_mode,omitempty" json:"review_mode,omitempty"`
	FileLinks     []string   `bson:"file_links,omitempty" json:"file_links,omitempty"`
	DesignLinks   []string   `bson:"design_links,omitempty" json:"design_links,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	Deleted       bool       `bson:"deleted" json:"-"`
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Kind classifies the project for pricing by keyword-matching its type
// string. Titles are free text ("Ramadan recap" must not price as an
// ad), so they are only consulted for the enhancement-design marker,
// which can live in either field and forces design pricing.
func (p *Project) Kind() ProjectKind {
	typ := strings.ToLower(p.Type)
	if p.IsEnhancement() {
		title := strings.ToLower(p.Title)
		if containsAny(typ, kindKeywords[0].keywords) || containsAny(title, kindKeywords[0].keywords) {
			return KindDesign
		}
	}
	for _, entry := range kindKeywords {
		if containsAny(typ, entry.keywords) {
			return entry.kind
		}
	}
	return KindOther
}

// IsEnhancement reports whether the project is an enhancement/revision
// variant. Enhancements are never invoiced as standalone projects.
func (p *Project) IsEnhancement() bool {
	haystack := strings.ToLower(p.Type + " " + p.Title)
	return containsAny(haystack, enhancementMarkers)
}

// Filming / Editing / Design / Review expose the canonical work states.
func (p *Project) Filming() WorkState { return ParseWorkState(p.FilmingStatus) }
func (p *Project) Editing() WorkState { return ParseWorkState(p.EditMode) }
func (p *Project) Design() WorkState  { return ParseWorkState(p.DesignMode) }
func (p *Project) Review() WorkState  { return ParseWorkState(p.ReviewMode) }
