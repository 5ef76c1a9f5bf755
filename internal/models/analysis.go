package models

import (
	"encoding/json"
	"fmt"
)

// HighlightCategory важность выделенного фрагмента документа.
type HighlightCategory string

const (
	HighlightCritical HighlightCategory = "critical"
	HighlightWarning  HighlightCategory = "warning"
	HighlightInfo     HighlightCategory = "info"
)

// ClaimContacts куда обращаться по гарантийному случаю.
type ClaimContacts struct {
	Phone   string `json:"phone,omitempty" validate:"max=64"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Website string `json:"website,omitempty" validate:"max=512"`
	Address string `json:"address,omitempty" validate:"max=512"`
}

// CriticalDate важная дата из текста гарантии: срок регистрации, обязательного ТО и т.п.
// Date хранится как извлечено, без разбора.
type CriticalDate struct {
	Date        string `json:"date" validate:"required,max=64"`
	Description string `json:"description" validate:"required,max=1000"`
	Type        string `json:"type" validate:"max=64"`
}

// Highlight выделенный фрагмент условий.
type Highlight struct {
	Text       string            `json:"text" validate:"required,max=1000"`
	Category   HighlightCategory `json:"category" validate:"required,oneof=critical warning info"`
	Icon       string            `json:"icon,omitempty" validate:"max=32"`
	Importance int               `json:"importance" validate:"min=1,max=5"`
}

// Analysis условия гарантии, извлеченные из документа. Хранятся вместе
// с гарантией и на расчет дат не влияют.
type Analysis struct {
	Summary         string         `json:"summary,omitempty" validate:"max=5000"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty" validate:"omitempty,min=0,max=1"`
	CoverageItems   []string       `json:"coverage_items,omitempty" validate:"max=100,dive,max=1000"`
	Exclusions      []string       `json:"exclusions,omitempty" validate:"max=100,dive,max=1000"`
	Limitations     []string       `json:"limitations,omitempty" validate:"max=100,dive,max=1000"`
	ClaimProcedure  string         `json:"claim_procedure,omitempty" validate:"max=5000"`
	ClaimContacts   *ClaimContacts `json:"claim_contacts,omitempty"`
	RequiredDocs    []string       `json:"required_docs,omitempty" validate:"max=50,dive,max=1000"`
	CriticalDates   []CriticalDate `json:"critical_dates,omitempty" validate:"max=50,dive"`
	Transferable    *bool          `json:"transferable,omitempty"`
	ExtendedOptions string         `json:"extended_options,omitempty" validate:"max=5000"`
	Highlights      []Highlight    `json:"highlights,omitempty" validate:"max=50,dive"`
}

// IsZero сообщает, что анализ не содержит ни одного поля.
func (a Analysis) IsZero() bool {
	return a.Summary == "" && a.ConfidenceScore == nil && len(a.CoverageItems) == 0 &&
		len(a.Exclusions) == 0 && len(a.Limitations) == 0 && a.ClaimProcedure == "" &&
		a.ClaimContacts == nil && len(a.RequiredDocs) == 0 && len(a.CriticalDates) == 0 &&
		a.Transferable == nil && a.ExtendedOptions == "" && len(a.Highlights) == 0
}

// EncodeAnalysis сериализует анализ для хранения. Пустой анализ хранится как NULL.
func EncodeAnalysis(a *Analysis) (*string, error) {
	const op = "models.EncodeAnalysis"
	if a == nil || a.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	raw := string(b)
	return &raw, nil
}

// DecodeAnalysis разбирает сохраненный анализ. NULL дает nil.
func DecodeAnalysis(raw *string) (*Analysis, error) {
	const op = "models.DecodeAnalysis"
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var a Analysis
	if err := json.Unmarshal([]byte(*raw), &a); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}
