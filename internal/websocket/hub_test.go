package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desk-reserve/backend/internal/storage/models"
)

func receive(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "client channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func assertNothingReceived(t *testing.T, c *Client) {
	t.Helper()

	select {
	case data := <-c.Send():
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func Test_Hub_DeliversTopicMessagesToSubscribers(t *testing.T) {
	// setup
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	all := NewClient(hub)
	floor3 := NewClient(hub)
	floor3.Subscribe("HQ_Tower_A_Floor3_table")
	floor4 := NewClient(hub)
	floor4.Subscribe("HQ_Tower_A_Floor4_table")

	hub.Register(all)
	hub.Register(floor3)
	hub.Register(floor4)
	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 10*time.Millisecond)

	// act
	NewEventBroadcaster(hub).BroadcastBookingsCreated([]models.Booking{{
		ID:             "b1_2024-01-10",
		Date:           "2024-01-10",
		BookType:       models.BookTypeDesk,
		SubType:        "D1",
		OfficeLocation: "HQ",
		Building:       "Tower A",
		Floor:          "Floor3",
		Status:         models.BookingStatusConfirmed,
		UserID:         "u1",
	}})

	// assert
	msg := receive(t, all)
	assert.Equal(t, TypeBookingCreated, msg.Type)
	assert.Equal(t, "HQ_Tower_A_Floor3_table", msg.Topic)

	msg = receive(t, floor3)
	assert.Equal(t, TypeBookingCreated, msg.Type)

	assertNothingReceived(t, floor4)
}

func Test_BroadcastDailyDigest_PublishesOneEventPerFloor(t *testing.T) {
	// setup
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	floor3 := NewClient(hub)
	floor3.Subscribe("HQ_Tower_A_Floor3_table")
	floor4 := NewClient(hub)
	floor4.Subscribe("HQ_Tower_A_Floor4_table")
	hub.Register(floor3)
	hub.Register(floor4)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	booking := func(id, seat, floor string) models.Booking {
		return models.Booking{
			ID: id, Date: "2024-01-10", BookType: models.BookTypeDesk, SubType: seat,
			OfficeLocation: "HQ", Building: "Tower A", Floor: floor,
			Status: models.BookingStatusConfirmed, UserID: "u1",
		}
	}

	// act
	NewEventBroadcaster(hub).BroadcastDailyDigest([]models.Booking{
		booking("b1", "D1", "Floor3"),
		booking("b2", "D9", "Floor4"),
		booking("b3", "D2", "Floor3"),
	})

	// assert
	msg := receive(t, floor3)
	assert.Equal(t, TypeBookingDigest, msg.Type)
	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"b1", "b3"}, payload["booking_ids"])
	assert.Equal(t, "", payload["sub_type"])
	assertNothingReceived(t, floor3)

	msg = receive(t, floor4)
	assert.Equal(t, TypeBookingDigest, msg.Type)
	assert.Equal(t, "HQ_Tower_A_Floor4_table", msg.Topic)
}

func Test_Hub_NotificationsReachEveryClient(t *testing.T) {
	// setup
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	subscribed := NewClient(hub)
	subscribed.Subscribe("HQ_Tower_A_Floor3_table")
	hub.Register(subscribed)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// act
	NewEventBroadcaster(hub).BroadcastNotification("info", "Maintenance", "Floor 3 closes early")

	// assert
	msg := receive(t, subscribed)
	assert.Equal(t, TypeNotification, msg.Type)
	assert.Empty(t, msg.Topic)
}

func Test_Hub_Stop_ClosesClients(t *testing.T) {
	// setup
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	client := NewClient(hub)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// act
	hub.Stop()

	// assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	_, ok := <-client.Send()
	assert.False(t, ok)
	assert.Zero(t, hub.ClientCount())
}

func Test_Client_Wants(t *testing.T) {
	c := NewClient(nil)
	assert.True(t, c.Wants("a"), "no subscriptions receives everything")

	c.Subscribe("a")
	assert.True(t, c.Wants("a"))
	assert.False(t, c.Wants("b"))
	assert.True(t, c.Wants(""))

	c.Unsubscribe("a")
	assert.True(t, c.Wants("b"))
}
