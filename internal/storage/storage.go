// Package storage реализует постоянное хранилище именованных коллекций.
// Load возвращает ранее сохранённую коллекцию (или пустую, если её нет),
// Save перезаписывает коллекцию целиком. Записи сериализуются в JSON.
package storage

import "context"

// Имена коллекций хранилища.
const (
	CollectionUsers    = "parking_users"
	CollectionCells    = "parking_cells"
	CollectionEntries  = "parking_entries"
	CollectionPayments = "parking_payments"
)

// Store определяет контракт хранилища коллекций.
type Store interface {
	// Load десериализует коллекцию name в dest (указатель на срез).
	// Отсутствующая коллекция оставляет dest пустым и не является ошибкой.
	Load(ctx context.Context, name string, dest any) error
	// Save сериализует records и перезаписывает коллекцию name целиком.
	Save(ctx context.Context, name string, records any) error
}
