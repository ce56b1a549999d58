package dccacc

import "testing"

type packetRec struct {
	address    int
	subaddress int
	active     bool
}

type fakeSink struct{ packets []packetRec }

func (s *fakeSink) SetAccessory(address, subaddress int, active bool) {
	s.packets = append(s.packets, packetRec{address, subaddress, active})
}

func TestWriteEmitsAccessoryPacket(t *testing.T) {
	sink := &fakeSink{}
	d := New(300, 8, 12, 1, sink, nil)

	d.Write(300, 1)
	d.Write(303, 0)
	want := []packetRec{{12, 1, true}, {12, 4, false}}
	if len(sink.packets) != 2 || sink.packets[0] != want[0] || sink.packets[1] != want[1] {
		t.Fatalf("packets = %v, want %v", sink.packets, want)
	}
}

func TestLinearAddressSplit(t *testing.T) {
	cases := []struct {
		linear     int
		address    int
		subaddress int
	}{
		{1, 0, 1},
		{4, 0, 4},
		{5, 1, 1},
		{100, 24, 4},
	}
	for _, tc := range cases {
		sink := &fakeSink{}
		d := NewLinear(300, 4, tc.linear, sink, nil)
		d.Write(300, 1)
		got := sink.packets[0]
		if got.address != tc.address || got.subaddress != tc.subaddress {
			t.Errorf("linear %d: packet %d/%d, want %d/%d",
				tc.linear, got.address, got.subaddress, tc.address, tc.subaddress)
		}
	}
}

func TestReadIsUnsupported(t *testing.T) {
	d := New(300, 8, 12, 1, &fakeSink{}, nil)
	if d.Read(300) {
		t.Fatal("track-side outputs have no read path")
	}
	if d.Deletable() {
		t.Fatal("dcc driver must not be deletable")
	}
}
