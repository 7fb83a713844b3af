package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"campusmart/internal/domain"
)

type MessageRepo struct{ db *sqlx.DB }

func NewMessageRepo(db *sqlx.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageCols = `id, conversation_id, sender_id, receiver_id, body, attachments, read, created_at`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO messages(id,conversation_id,sender_id,receiver_id,body,attachments,read,created_at)
	  VALUES(?,?,?,?,?,?,0,?)`,
		m.ID, m.ConversationID, m.SenderID, m.ReceiverID, m.Body, m.Attachments, m.CreatedAt)
	return err
}

// Thread returns a conversation oldest first.
func (r *MessageRepo) Thread(ctx context.Context, conversationID string, page domain.Page) ([]domain.Message, error) {
	out := []domain.Message{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+messageCols+` FROM messages WHERE conversation_id=?
	  ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?`, conversationID, page.Limit, page.Offset())
	return out, err
}

// MarkRead flags everything receiverID got in the conversation as read.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE messages SET read=1 WHERE conversation_id=? AND receiver_id=? AND read=0`, conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MessageRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM messages WHERE receiver_id=? AND read=0`, userID)
	return n, err
}

// Conversations summarises each partner of userID with the latest message and unread count.
func (r *MessageRepo) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	out := []domain.Conversation{}
	err := r.db.SelectContext(ctx, &out, `
	  WITH mine AS (
	    SELECT m.*, CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END AS partner_id,
	           ROW_NUMBER() OVER (PARTITION BY m.conversation_id ORDER BY m.created_at DESC, m.rowid DESC) AS rn
	    FROM messages m
	    WHERE m.sender_id = ? OR m.receiver_id = ?
	  )
	  SELECT mine.conversation_id, mine.partner_id,
	         COALESCE(u.name,'') AS partner_name, COALESCE(u.avatar,'') AS partner_avatar,
	         mine.body AS last_message, mine.sender_id AS last_sender_id, mine.created_at AS last_at,
	         (SELECT COUNT(*) FROM messages x
	          WHERE x.conversation_id = mine.conversation_id AND x.receiver_id = ? AND x.read = 0) AS unread
	  FROM mine LEFT JOIN users u ON u.id = mine.partner_id
	  WHERE mine.rn = 1
	  ORDER BY mine.created_at DESC`, userID, userID, userID, userID)
	return out, err
}
