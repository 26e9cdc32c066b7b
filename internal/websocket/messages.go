package websocket

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeBookingCreated   MessageType = "booking.created"
	TypeBookingCancelled MessageType = "booking.cancelled"
	TypeBookingDigest    MessageType = "booking.digest"
	TypeFloorPlanSaved   MessageType = "floorplan.saved"
	TypeFloorPlanDeleted MessageType = "floorplan.deleted"
	TypeNotification     MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck   MessageType = "subscribe.ack"
	TypeUnsubscribeAck MessageType = "unsubscribe.ack"
	TypePong           MessageType = "pong"
	TypeError          MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic,omitempty"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(m)
}

// Command is a message sent by a client.
type Command struct {
	Type  MessageType `json:"type"`
	Topic string      `json:"topic,omitempty"` // location key for subscribe/unsubscribe
}

// BookingPayload is the payload for booking.* events.
type BookingPayload struct {
	BookingIDs     []string `json:"booking_ids"`
	Dates          []string `json:"dates"`
	BookType       string   `json:"book_type"`
	SubType        string   `json:"sub_type"`
	OfficeLocation string   `json:"office_location"`
	Building       string   `json:"building"`
	Floor          string   `json:"floor"`
	UserID         string   `json:"user_id,omitempty"`
	Status         string   `json:"status"`
}

// FloorPlanPayload is the payload for floorplan.* events.
type FloorPlanPayload struct {
	TableName      string `json:"table_name"`
	OfficeLocation string `json:"office_location"`
	BuildingName   string `json:"building_name"`
	FloorID        string `json:"floor_id"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
