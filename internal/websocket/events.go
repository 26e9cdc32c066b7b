package websocket

import (
	"log"

	"github.com/desk-reserve/backend/internal/location"
	"github.com/desk-reserve/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
// Booking and floor plan events are published on the location key of the
// floor they belong to.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastBookingsCreated sends one booking.created event for the
// occurrences materialized from a single request.
func (b *EventBroadcaster) BroadcastBookingsCreated(bookings []models.Booking) {
	if len(bookings) == 0 {
		return
	}
	b.publishBookings(TypeBookingCreated, bookings)
}

// BroadcastBookingCancelled sends a booking.cancelled event.
func (b *EventBroadcaster) BroadcastBookingCancelled(booking models.Booking) {
	b.publishBookings(TypeBookingCancelled, []models.Booking{booking})
}

// BroadcastDailyDigest sends booking.digest events, one per floor.
func (b *EventBroadcaster) BroadcastDailyDigest(bookings []models.Booking) {
	byTopic := make(map[string][]models.Booking)
	var order []string
	for _, booking := range bookings {
		topic := bookingTopic(booking)
		if _, seen := byTopic[topic]; !seen {
			order = append(order, topic)
		}
		byTopic[topic] = append(byTopic[topic], booking)
	}

	for _, topic := range order {
		b.publishBookings(TypeBookingDigest, byTopic[topic])
	}
}

// BroadcastFloorPlanSaved sends a floorplan.saved event.
func (b *EventBroadcaster) BroadcastFloorPlanSaved(tableName, office, building, floor string) {
	b.publishFloorPlan(TypeFloorPlanSaved, tableName, office, building, floor)
}

// BroadcastFloorPlanDeleted sends a floorplan.deleted event.
func (b *EventBroadcaster) BroadcastFloorPlanDeleted(tableName, office, building, floor string) {
	b.publishFloorPlan(TypeFloorPlanDeleted, tableName, office, building, floor)
}

// BroadcastNotification sends a notification to all connected clients.
// Level is one of info, warning, error or success.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.publish("", NewMessage(TypeNotification, payload))
}

func (b *EventBroadcaster) publishBookings(msgType MessageType, bookings []models.Booking) {
	first := bookings[0]
	payload := BookingPayload{
		BookType:       string(first.BookType),
		SubType:        first.SubType,
		OfficeLocation: first.OfficeLocation,
		Building:       first.Building,
		Floor:          first.Floor,
		UserID:         first.UserID,
		Status:         string(first.Status),
	}
	for _, booking := range bookings {
		payload.BookingIDs = append(payload.BookingIDs, booking.ID)
		payload.Dates = append(payload.Dates, booking.Date)
	}
	if msgType == TypeBookingDigest {
		// Digests span several resources
		payload.SubType = ""
		payload.UserID = ""
	}

	topic := bookingTopic(first)
	msg := NewMessage(msgType, payload)
	msg.Topic = topic
	b.publish(topic, msg)
}

func (b *EventBroadcaster) publishFloorPlan(msgType MessageType, tableName, office, building, floor string) {
	payload := FloorPlanPayload{
		TableName:      tableName,
		OfficeLocation: office,
		BuildingName:   building,
		FloorID:        floor,
	}

	msg := NewMessage(msgType, payload)
	msg.Topic = tableName
	b.publish(tableName, msg)
}

// publish encodes msg and hands it to the hub.
func (b *EventBroadcaster) publish(topic string, msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Publish(topic, data)
}

func bookingTopic(booking models.Booking) string {
	return location.GenerateTableName(booking.OfficeLocation, booking.Building, booking.Floor)
}
