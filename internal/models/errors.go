package models

import "errors"

var (
	// ErrWarrantyNotFound гарантии с таким id нет в хранилище.
	ErrWarrantyNotFound = errors.New("warranty not found")
	// ErrPreferencesNotFound у пользователя еще нет настроек уведомлений.
	ErrPreferencesNotFound = errors.New("preferences not found")
	// ErrNoExpiryToExtend у непожизненной гарантии нет даты окончания, продлевать не от чего.
	ErrNoExpiryToExtend = errors.New("warranty has no expiry date to extend")
	// ErrInvalidExtension число месяцев продления должно быть положительным.
	ErrInvalidExtension = errors.New("extension months must be positive")
	// ErrInvalidWarrantyType неизвестный тип гарантии.
	ErrInvalidWarrantyType = errors.New("invalid warranty type")
	// ErrInvalidDuration длительность не указана и не распознана.
	ErrInvalidDuration = errors.New("warranty duration could not be determined")
)

// ErrInvalidStartDate дата начала не в формате 2006-01-02.
var ErrInvalidStartDate = errors.New("invalid start date")
