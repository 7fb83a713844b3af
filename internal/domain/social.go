package domain

import "sort"

type Message struct {
	ID             string     `db:"id" json:"id"`
	ConversationID string     `db:"conversation_id" json:"conversation_id"`
	SenderID       string     `db:"sender_id" json:"sender_id"`
	ReceiverID     string     `db:"receiver_id" json:"receiver_id"`
	Body           string     `db:"body" json:"body"`
	Attachments    StringList `db:"attachments" json:"attachments"`
	Read           bool       `db:"read" json:"read"`
	CreatedAt      string     `db:"created_at" json:"created_at"`
}

// ConversationID is stable for a pair of users regardless of direction.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}

type Conversation struct {
	ConversationID string `db:"conversation_id" json:"conversation_id"`
	PartnerID      string `db:"partner_id" json:"partner_id"`
	PartnerName    string `db:"partner_name" json:"partner_name"`
	PartnerAvatar  string `db:"partner_avatar" json:"partner_avatar"`
	LastMessage    string `db:"last_message" json:"last_message"`
	LastSenderID   string `db:"last_sender_id" json:"last_sender_id"`
	LastAt         string `db:"last_at" json:"last_at"`
	Unread         int    `db:"unread" json:"unread"`
	Online         bool   `db:"-" json:"online"`
}

type Review struct {
	ID        string  `db:"id" json:"id"`
	UserID    string  `db:"user_id" json:"user_id"`
	UserName  string  `db:"user_name" json:"user_name"`
	RefType   RefType `db:"ref_type" json:"ref_type"`
	RefID     string  `db:"ref_id" json:"ref_id"`
	Rating    int     `db:"rating" json:"rating"`
	Comment   string  `db:"comment" json:"comment"`
	CreatedAt string  `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Type      string `db:"type" json:"type"`
	Title     string `db:"title" json:"title"`
	Body      string `db:"body" json:"body"`
	Link      string `db:"link" json:"link"`
	Read      bool   `db:"read" json:"read"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

const (
	WalkerPending  = "pending"
	WalkerApproved = "approved"
	WalkerRejected = "rejected"
)

// Walker is a delivery-agent application.
type Walker struct {
	ID         string `db:"id" json:"id"`
	UserID     string `db:"user_id" json:"user_id"`
	FullName   string `db:"full_name" json:"full_name"`
	Phone      string `db:"phone" json:"phone"`
	StudentID  string `db:"student_id" json:"student_id"`
	Vehicle    string `db:"vehicle" json:"vehicle"`
	Status     string `db:"status" json:"status"`
	ReviewedBy string `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt string `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}
