package floorplan

import (
	"bytes"
	"io"
	"log"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var planCodec = jsoniter.Config{EscapeHTML: false}.Froze()

// field is one member of a JSON object with its value kept as written.
type field struct {
	key string
	raw []byte
}

// overlayOccupancy marks every seat with an id as occupied or available.
// Members keep their document order and values other than seat statuses are
// copied as written. Plans that cannot be decoded are returned unchanged.
func overlayOccupancy(plan string, bookedSeats []string) string {
	booked := make(map[string]bool, len(bookedSeats))
	for _, id := range bookedSeats {
		booked[id] = true
	}

	root, err := readObject([]byte(plan))
	if err != nil {
		log.Printf("Error updating seat status with bookings: %v", err)
		return plan
	}
	if root == nil {
		return plan
	}

	seatsAt := -1
	for i, f := range root {
		if f.key == "seats" {
			seatsAt = i
		}
	}
	if seatsAt < 0 {
		return plan
	}
	seats, err := readArray(root[seatsAt].raw)
	if err != nil || seats == nil {
		return plan
	}

	stream := planCodec.BorrowStream(nil)
	defer planCodec.ReturnStream(stream)

	stream.WriteArrayStart()
	for i, raw := range seats {
		if i > 0 {
			stream.WriteMore()
		}
		seat, err := readObject(raw)
		if err != nil || seat == nil {
			stream.WriteRaw(string(raw))
			continue
		}
		id, ok := seatID(seat)
		if !ok {
			writeObject(stream, seat)
			continue
		}
		status := SeatStatusAvailable
		if booked[id] {
			status = SeatStatusOccupied
		}
		writeObject(stream, withStatus(seat, status))
	}
	stream.WriteArrayEnd()
	root[seatsAt].raw = append([]byte(nil), stream.Buffer()...)

	stream.Reset(nil)
	writeObject(stream, root)
	if stream.Error != nil {
		log.Printf("Error encoding floor plan with seat status: %v", stream.Error)
		return plan
	}
	return string(stream.Buffer())
}

// readObject splits a JSON object into its members. It returns nil without
// error when data holds another kind of value.
func readObject(data []byte) ([]field, error) {
	iter := planCodec.BorrowIterator(data)
	defer planCodec.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, nil
	}

	fields := []field{}
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		raw := bytes.TrimSpace(it.SkipAndReturnBytes())
		fields = append(fields, field{key: key, raw: append([]byte(nil), raw...)})
		return true
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, iter.Error
	}
	return fields, nil
}

// readArray splits a JSON array into its elements. It returns nil without
// error when data holds another kind of value.
func readArray(data []byte) ([][]byte, error) {
	iter := planCodec.BorrowIterator(data)
	defer planCodec.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ArrayValue {
		return nil, nil
	}

	elems := [][]byte{}
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		raw := bytes.TrimSpace(it.SkipAndReturnBytes())
		elems = append(elems, append([]byte(nil), raw...))
		return true
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, iter.Error
	}
	return elems, nil
}

func writeObject(stream *jsoniter.Stream, fields []field) {
	stream.WriteObjectStart()
	for i, f := range fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.key)
		stream.WriteRaw(string(f.raw))
	}
	stream.WriteObjectEnd()
}

// withStatus sets the status member in place, appending it when absent.
func withStatus(seat []field, status string) []field {
	raw := []byte(strconv.Quote(status))
	for i := range seat {
		if seat[i].key == "status" {
			seat[i].raw = raw
			return seat
		}
	}
	return append(seat, field{key: "status", raw: raw})
}

// seatID renders the id member of a seat as text. Absent, null and
// structured ids are skipped.
func seatID(seat []field) (string, bool) {
	for _, f := range seat {
		if f.key != "id" {
			continue
		}

		iter := planCodec.BorrowIterator(f.raw)
		defer planCodec.ReturnIterator(iter)

		switch iter.WhatIsNext() {
		case jsoniter.StringValue:
			return iter.ReadString(), true
		case jsoniter.NumberValue:
			return string(f.raw), true
		case jsoniter.BoolValue:
			return strconv.FormatBool(iter.ReadBool()), true
		default:
			return "", false
		}
	}
	return "", false
}
