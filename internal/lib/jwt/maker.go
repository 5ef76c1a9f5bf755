// Package jwt реализует проверку JWT токенов, подписанных HS256.
//
// Токены выпускает внешний сервис аутентификации с общим секретом;
// API только проверяет их и извлекает идентификатор пользователя.
package jwt

// Parser описывает проверку JWT токенов.
type Parser interface {
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует интерфейс Parser с использованием общего секретного ключа.
type MakerImpl struct {
	secretKey string // Секретный ключ для проверки подписи.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа.
func NewJWTMaker(secretKey string) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
	}
}
