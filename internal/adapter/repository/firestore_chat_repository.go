package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tallerlink/internal/domain/entity"
	"tallerlink/internal/domain/repository"
	"tallerlink/pkg/errors"
	"tallerlink/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// chatDocID derives the chat document id from the (cotizacion, tienda)
// pair. Deterministic ids make GetOrCreateChat race-free: concurrent
// creators target the same document and Create fails for all but one.
func chatDocID(cotizacionID, tiendaID string) string {
	return fmt.Sprintf("%s_%s", cotizacionID, tiendaID)
}

func (r *firestoreChatRepository) GetOrCreateChat(ctx context.Context, cotizacionID, tiendaID string, participants []string) (*entity.Chat, error) {
	docID := chatDocID(cotizacionID, tiendaID)
	docRef := r.client.Collection("chats").Doc(docID)

	now := time.Now()
	chat := &entity.Chat{
		ID:            docID,
		CotizacionID:  cotizacionID,
		TiendaID:      tiendaID,
		Participants:  participants,
		UnreadCount:   make(map[string]int),
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := docRef.Create(ctx, chat)
	if err == nil {
		return chat, nil
	}
	if status.Code(err) != codes.AlreadyExists {
		return nil, errors.Internal("Failed to create chat", err)
	}

	// Lost the race (or the chat pre-existed): fetch the winner.
	doc, err := docRef.Get(ctx)
	if err != nil {
		return nil, errors.Internal("Failed to get existing chat", err)
	}

	var existing entity.Chat
	if err := doc.DataTo(&existing); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	return &existing, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.client.Collection("chats").Where("participants", "array-contains", userID).OrderBy("lastMessageAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch chats", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var chats []*entity.Chat
	for i := start; i < end; i++ {
		var chat entity.Chat
		if err := allDocs[i].DataTo(&chat); err != nil {
			logger.Error("Error parsing chat data for user %s: %v", userID, err)
			continue
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) ListByCotizacion(ctx context.Context, cotizacionID string) ([]*entity.Chat, error) {
	query := r.client.Collection("chats").Where("cotizacionId", "==", cotizacionID).OrderBy("createdAt", firestore.Asc)

	iter := query.Documents(ctx)
	var chats []*entity.Chat

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing chats for cotizacion %s: %v", cotizacionID, err)
			return nil, errors.Internal("Failed to list chats for cotizacion", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return nil, errors.Internal("Failed to parse chat data", err)
		}
		chats = append(chats, &chat)
	}

	return chats, nil
}

// RecordMessageActivity applies field-level updates only. Counters use
// firestore.Increment so a concurrent MarkChatAsRead reset is never
// overwritten by a stale whole-document write.
func (r *firestoreChatRepository) RecordMessageActivity(ctx context.Context, chatID, preview string, at time.Time, unreadUserIDs []string) error {
	updates := []firestore.Update{
		{Path: "lastMessage", Value: preview},
		{Path: "lastMessageAt", Value: at},
		{Path: "updatedAt", Value: time.Now()},
	}
	for _, uid := range unreadUserIDs {
		updates = append(updates, firestore.Update{Path: "unreadCount." + uid, Value: firestore.Increment(1)})
	}

	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, updates)
	if err != nil {
		return errors.Internal("Failed to record chat activity", err)
	}

	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.Content == "" && message.ImageURL == "" {
		return errors.Validation("Message must have content or an image", nil)
	}

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("createdAt", firestore.Asc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching messages for chat %s: %v", chatID, err)
		return nil, 0, errors.Internal("Failed to fetch messages for chat", err)
	}

	var messages []*entity.Message
	for _, doc := range allDocs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	// Creation-timestamp order with id as the tie break keeps repeated
	// reads stable when two messages share a timestamp.
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	total := int64(len(messages))

	start := offset
	if start > len(messages) {
		start = len(messages)
	}
	end := len(messages)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return messages[start:end], total, nil
}

func (r *firestoreChatRepository) MarkChatAsRead(ctx context.Context, chatID, readerID string) error {
	chatRef := r.client.Collection("chats").Doc(chatID)

	if _, err := chatRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat", nil)
		}
		return errors.Internal("Failed to get chat", err)
	}

	iter := chatRef.Collection("messages").Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message %s in chat %s: %v", doc.Ref.ID, chatID, err)
			continue
		}

		if message.SenderID == readerID || containsString(message.ReadBy, readerID) {
			continue
		}

		_, err = doc.Ref.Update(ctx, []firestore.Update{
			{Path: "readBy", Value: firestore.ArrayUnion(readerID)},
		})
		if err != nil {
			return errors.Internal("Failed to update message read status", err)
		}
	}

	// Reset the display counter alongside the durable read state.
	_, err := chatRef.Update(ctx, []firestore.Update{
		{Path: "unreadCount." + readerID, Value: 0},
	})
	if err != nil {
		return errors.Internal("Failed to reset unread count", err)
	}

	return nil
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
