package model

// Message is one direct message between two users.
//
// Messages are immutable once stored. There is no conversation entity: the
// thread between A and B is every message whose {sender, receiver} pair is
// {A, B} in either order.
//
// Epoch is the store-assigned creation time as Unix seconds. It is only set
// on messages read back from the store.
type Message struct {
	ID         int64  `json:"message_id"`
	SenderID   int64  `json:"sender_user_id"`
	ReceiverID int64  `json:"-"`
	Body       string `json:"message"`
	Epoch      int64  `json:"epoch"`
}
