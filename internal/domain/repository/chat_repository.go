package repository

import (
	"context"
	"time"

	"tallerlink/internal/domain/entity"
)

type ChatRepository interface {
	// GetOrCreateChat returns the chat for the (cotizacionID, tiendaID)
	// pair, creating it if it does not exist. Safe under concurrent calls
	// for the same pair.
	GetOrCreateChat(ctx context.Context, cotizacionID, tiendaID string, participants []string) (*entity.Chat, error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	ListByCotizacion(ctx context.Context, cotizacionID string) ([]*entity.Chat, error)
	// RecordMessageActivity updates the chat's last-message preview and
	// bumps the unread counter of each listed user, without touching any
	// other field, so it cannot clobber a concurrent read reset.
	RecordMessageActivity(ctx context.Context, chatID, preview string, at time.Time, unreadUserIDs []string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	MarkChatAsRead(ctx context.Context, chatID, readerID string) error
}
