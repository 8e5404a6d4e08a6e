package model

import (
	"fmt"
	"strings"
)

// ExperienceFormat selects which content fields of an Experience are
// meaningful. The three variants are mutually exclusive.
type ExperienceFormat string

const (
	FormatSTAR ExperienceFormat = "STAR"
	FormatPSI  ExperienceFormat = "PSI"
	FormatFree ExperienceFormat = "FREE"
)

// ExperienceTypes is the closed set of valid experience_type values.
var ExperienceTypes = []string{
	"아르바이트",
	"인턴",
	"정규직",
	"계약직",
	"봉사 활동",
	"수상경력",
	"동아리 활동",
	"연구 활동",
	"군복무",
	"개인 활동",
}

// ExperienceCategories is the closed set of valid category values.
var ExperienceCategories = []string{
	"고객 가치 지향",
	"기술적 전문성",
	"협력적 소통",
	"주도적 실행력",
	"논리적 분석력",
	"창의적 문제해결",
	"유연한 적응력",
	"끈기있는 책임감",
}

// Experience is a vector-store point payload, modeled as a tagged union
// keyed by Format. Only the active variant's content fields are serialized;
// the store boundary validates instead of trusting a free-form payload bag.
type Experience struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Title          string           `json:"title"`
	ExperienceType string           `json:"experience_type"`
	Category       string           `json:"category"`
	Format         ExperienceFormat `json:"format"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	Tags           string           `json:"tags"`

	// STAR variant
	Situation string `json:"situation,omitempty"`
	Task      string `json:"task,omitempty"`
	Action    string `json:"action,omitempty"`
	Result    string `json:"result,omitempty"`

	// PSI variant
	Problem  string `json:"problem,omitempty"`
	Solution string `json:"solution,omitempty"`
	Impact   string `json:"impact,omitempty"`

	// FREE variant
	Content string `json:"content,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ExperienceFromPayload decodes a stored point payload into an Experience,
// validating the format tag and the closed enums. Payloads written before
// the format tag existed carry STAR fields only, so a missing format
// defaults to STAR.
func ExperienceFromPayload(id string, payload map[string]any) (Experience, error) {
	e := Experience{
		ID:             id,
		UserID:         payloadString(payload, "user_id"),
		Title:          payloadString(payload, "title"),
		ExperienceType: payloadString(payload, "experience_type"),
		Category:       payloadString(payload, "category"),
		StartDate:      payloadString(payload, "start_date"),
		EndDate:        payloadString(payload, "end_date"),
		Tags:           payloadString(payload, "tags"),
		CreatedAt:      payloadString(payload, "created_at"),
		UpdatedAt:      payloadString(payload, "updated_at"),
	}

	format := ExperienceFormat(strings.ToUpper(strings.TrimSpace(payloadString(payload, "format"))))
	if format == "" {
		format = FormatSTAR
	}
	e.Format = format

	switch format {
	case FormatSTAR:
		e.Situation = payloadString(payload, "situation")
		e.Task = payloadString(payload, "task")
		e.Action = payloadString(payload, "action")
		e.Result = payloadString(payload, "result")
	case FormatPSI:
		e.Problem = payloadString(payload, "problem")
		e.Solution = payloadString(payload, "solution")
		e.Impact = payloadString(payload, "impact")
	case FormatFree:
		e.Content = payloadString(payload, "content")
	default:
		return Experience{}, fmt.Errorf("unknown experience format %q", format)
	}

	if err := e.Validate(); err != nil {
		return Experience{}, err
	}
	return e, nil
}

// Validate checks the closed enums and that no inactive-variant content
// survived a merge.
func (e *Experience) Validate() error {
	if e.ExperienceType != "" && !containsString(ExperienceTypes, e.ExperienceType) {
		return fmt.Errorf("invalid experience_type %q", e.ExperienceType)
	}
	if e.Category != "" && !containsString(ExperienceCategories, e.Category) {
		return fmt.Errorf("invalid category %q", e.Category)
	}
	switch e.Format {
	case FormatSTAR:
		if e.Problem != "" || e.Solution != "" || e.Impact != "" || e.Content != "" {
			return fmt.Errorf("STAR experience carries non-STAR content fields")
		}
	case FormatPSI:
		if e.Situation != "" || e.Task != "" || e.Action != "" || e.Result != "" || e.Content != "" {
			return fmt.Errorf("PSI experience carries non-PSI content fields")
		}
	case FormatFree:
		if e.Situation != "" || e.Task != "" || e.Action != "" || e.Result != "" ||
			e.Problem != "" || e.Solution != "" || e.Impact != "" {
			return fmt.Errorf("FREE experience carries structured content fields")
		}
	default:
		return fmt.Errorf("unknown experience format %q", e.Format)
	}
	return nil
}

// Payload encodes the experience for storage, emitting only the active
// variant's content fields.
func (e *Experience) Payload() map[string]any {
	p := map[string]any{
		"user_id":         e.UserID,
		"title":           e.Title,
		"experience_type": e.ExperienceType,
		"category":        e.Category,
		"format":          string(e.Format),
		"start_date":      e.StartDate,
		"end_date":        e.EndDate,
		"tags":            e.Tags,
		"created_at":      e.CreatedAt,
		"updated_at":      e.UpdatedAt,
	}
	switch e.Format {
	case FormatPSI:
		p["problem"] = e.Problem
		p["solution"] = e.Solution
		p["impact"] = e.Impact
	case FormatFree:
		p["content"] = e.Content
	default:
		p["situation"] = e.Situation
		p["task"] = e.Task
		p["action"] = e.Action
		p["result"] = e.Result
	}
	return p
}

// ApplyUpdate merges a partial payload (PATCH body) onto the experience.
// A format change drops the previous variant's content; the merged result
// is validated before it is accepted.
func (e *Experience) ApplyUpdate(update map[string]any) error {
	merged := e.Payload()
	for k, v := range update {
		switch k {
		case "id", "user_id", "created_at", "updated_at":
			// not client-writable
		default:
			merged[k] = v
		}
	}
	if raw, ok := update["format"]; ok {
		next := ExperienceFormat(strings.ToUpper(strings.TrimSpace(fmt.Sprint(raw))))
		if next != e.Format {
			for _, k := range variantKeys(e.Format) {
				if _, touched := update[k]; !touched {
					delete(merged, k)
				}
			}
		}
	}
	next, err := ExperienceFromPayload(e.ID, merged)
	if err != nil {
		return err
	}
	next.UserID = e.UserID
	next.CreatedAt = e.CreatedAt
	next.UpdatedAt = e.UpdatedAt
	*e = next
	return nil
}

func variantKeys(f ExperienceFormat) []string {
	switch f {
	case FormatPSI:
		return []string{"problem", "solution", "impact"}
	case FormatFree:
		return []string{"content"}
	default:
		return []string{"situation", "task", "action", "result"}
	}
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprint(v)
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
