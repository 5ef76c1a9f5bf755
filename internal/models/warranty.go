// Package models содержит доменные структуры гарантийного учета:
// гарантийный контракт, настройки уведомлений пользователя и записи
// об уведомлениях, а также структуры входящих JSON-запросов.
package models

import "time"

// WarrantyType вид гарантийного обязательства.
type WarrantyType string

const (
	TypeLimited          WarrantyType = "LIMITED"
	TypeExtended         WarrantyType = "EXTENDED"
	TypeLifetime         WarrantyType = "LIFETIME"
	TypeManufacturer     WarrantyType = "MANUFACTURER"
	TypeRetailProtection WarrantyType = "RETAIL_PROTECTION"
	TypeThirdParty       WarrantyType = "THIRD_PARTY"
)

// Valid сообщает, известен ли тип.
func (t WarrantyType) Valid() bool {
	switch t {
	case TypeLimited, TypeExtended, TypeLifetime, TypeManufacturer, TypeRetailProtection, TypeThirdParty:
		return true
	}
	return false
}

// WarrantyStatus производный статус гарантии. Хранится в базе только как кеш,
// источник истины — даты, тип и флаги claimed/void.
type WarrantyStatus string

const (
	StatusActive       WarrantyStatus = "ACTIVE"
	StatusExpiringSoon WarrantyStatus = "EXPIRING_SOON"
	StatusExpired      WarrantyStatus = "EXPIRED"
	StatusClaimed      WarrantyStatus = "CLAIMED"
	StatusVoid         WarrantyStatus = "VOID"
	StatusLifetime     WarrantyStatus = "LIFETIME"
)

// Warranty представляет гарантийный контракт на товар пользователя.
// ExpiryDate равна nil тогда и только тогда, когда Type = LIFETIME.
type Warranty struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	ProductID      *string        `json:"product_id,omitempty"`
	ProductName    string         `json:"product_name,omitempty"`
	Type           WarrantyType   `json:"warranty_type"`
	Status         WarrantyStatus `json:"status"`
	StartDate      *time.Time     `json:"start_date,omitempty"`
	ExpiryDate     *time.Time     `json:"expiry_date,omitempty"`
	DurationMonths *int           `json:"duration_months,omitempty"`
	IsClaimed      bool           `json:"is_claimed"`
	IsVoid         bool           `json:"is_void"`

	// Аудит продлений
	OriginalEndDate *time.Time `json:"original_end_date,omitempty"` // первая вычисленная дата окончания
	ExtendedBy      int        `json:"extended_by"`                 // суммарно добавлено месяцев
	ExtensionDate   *time.Time `json:"extension_date,omitempty"`    // момент последнего продления
	RenewalCount    int        `json:"renewal_count"`

	Analysis *Analysis `json:"analysis,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarrantyView гарантия вместе со статусом, пересчитанным на момент чтения.
type WarrantyView struct {
	Warranty
	DaysRemaining *int `json:"days_remaining"`
}

// ExtensionResult результат продления гарантии.
// Applied = false означает «нечего продлевать» (пожизненная гарантия).
type ExtensionResult struct {
	Applied         bool       `json:"applied"`
	NewExpiryDate   *time.Time `json:"new_expiry_date"`
	OriginalEndDate *time.Time `json:"original_end_date"`
	ExtendedBy      int        `json:"extended_by"`
}

// CreateWarrantyRequest используется для приема данных из JSON-запроса.
// Длительность задается либо числом месяцев, либо текстом ("2 years", "lifetime").
type CreateWarrantyRequest struct {
	ProductID      *string `json:"product_id"`
	ProductName    string  `json:"product_name" validate:"max=255"`
	WarrantyType   string  `json:"warranty_type" validate:"required,oneof=LIMITED EXTENDED LIFETIME MANUFACTURER RETAIL_PROTECTION THIRD_PARTY"`
	StartDate      string  `json:"start_date" validate:"required"` // формат 2006-01-02
	DurationMonths *int    `json:"duration_months" validate:"omitempty,min=1,max=1200"`
	Duration       string  `json:"duration" validate:"max=255"`
}

// AnalyzedWarrantyRequest данные, извлеченные моделью из фото документа.
// Поля анализа лежат на верхнем уровне JSON рядом с реквизитами.
type AnalyzedWarrantyRequest struct {
	ProductID    *string `json:"product_id"`
	ProductName  string  `json:"product_name" validate:"required,max=255"`
	Duration     string  `json:"duration" validate:"required,max=255"`
	PurchaseDate string  `json:"purchase_date"` // формат 2006-01-02, по умолчанию — сегодня
	WarrantyType string  `json:"warranty_type" validate:"omitempty,oneof=LIMITED EXTENDED LIFETIME MANUFACTURER RETAIL_PROTECTION THIRD_PARTY"`
	Analysis
}

// ReanalyzeWarrantyRequest повторный анализ документа существующей гарантии.
// Пустые PurchaseDate и WarrantyType сохраняют текущие значения.
type ReanalyzeWarrantyRequest struct {
	Duration     string `json:"duration" validate:"required,max=255"`
	PurchaseDate string `json:"purchase_date"`
	WarrantyType string `json:"warranty_type" validate:"omitempty,oneof=LIMITED EXTENDED LIFETIME MANUFACTURER RETAIL_PROTECTION THIRD_PARTY"`
	Analysis
}

// ExtendWarrantyRequest запрос на продление гарантии.
type ExtendWarrantyRequest struct {
	Months int `json:"months" validate:"required,min=1,max=120"`
}

// DateLayout формат дат во входящих запросах.
const DateLayout = "2006-01-02"
