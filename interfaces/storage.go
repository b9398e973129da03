package interfaces

import "context"

type StorageService interface {
	// ArchiveMessage stores the raw rewritten message and returns its
	// storage key
	ArchiveMessage(ctx context.Context, deliveryID uint64, raw []byte) (string, error)
	FetchMessage(ctx context.Context, storageKey string) ([]byte, error)
	DeleteMessage(ctx context.Context, storageKey string) error
}
