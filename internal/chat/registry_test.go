package chat

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopDeliverer struct{}

func (nopDeliverer) Deliver([]byte) error { return nil }

func TestConnections_RegisterAssignsSequentialIDs(t *testing.T) {
	c := NewConnections()

	assert.Equal(t, ConnectionID(0), c.Register(nopDeliverer{}))
	assert.Equal(t, ConnectionID(1), c.Register(nopDeliverer{}))

	c.Unregister(0)
	assert.Equal(t, ConnectionID(2), c.Register(nopDeliverer{}), "ids are never reused")
	assert.Equal(t, 2, c.Len())
}

func TestConnections_UnregisterIsIdempotent(t *testing.T) {
	c := NewConnections()
	id := c.Register(nopDeliverer{})

	c.Unregister(id)
	_, ok := c.Lookup(id)
	assert.False(t, ok)

	c.Unregister(id)
	c.Unregister(ConnectionID(99))
	assert.Equal(t, 0, c.Len())
}

func TestRooms_JoinLeave(t *testing.T) {
	tests := []struct {
		name  string
		apply func(r *Rooms)
		room  string
		want  []ConnectionID
		rooms int
	}{
		{
			name:  "unknown room is empty",
			apply: func(r *Rooms) {},
			room:  "lobby",
			want:  []ConnectionID{},
		},
		{
			name: "duplicate join stored once",
			apply: func(r *Rooms) {
				r.Join("lobby", 1)
				r.Join("lobby", 1)
			},
			room:  "lobby",
			want:  []ConnectionID{1},
			rooms: 1,
		},
		{
			name: "leave twice same as once",
			apply: func(r *Rooms) {
				r.Join("lobby", 1)
				r.Join("lobby", 2)
				r.Leave("lobby", 1)
				r.Leave("lobby", 1)
			},
			room:  "lobby",
			want:  []ConnectionID{2},
			rooms: 1,
		},
		{
			name: "last leave prunes room",
			apply: func(r *Rooms) {
				r.Join("lobby", 1)
				r.Leave("lobby", 1)
			},
			room:  "lobby",
			want:  []ConnectionID{},
			rooms: 0,
		},
		{
			name: "rooms are independent",
			apply: func(r *Rooms) {
				r.Join("a", 1)
				r.Join("b", 2)
				r.Leave("b", 1)
			},
			room:  "a",
			want:  []ConnectionID{1},
			rooms: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRooms()
			tt.apply(r)
			assert.Equal(t, tt.want, r.Members(tt.room))
			assert.Equal(t, len(tt.want), r.Count(tt.room))
			assert.Equal(t, tt.rooms, r.Len())
		})
	}
}

func TestRooms_MembersIsSnapshot(t *testing.T) {
	r := NewRooms()
	r.Join("lobby", 3)
	r.Join("lobby", 1)

	snapshot := r.Members("lobby")
	r.Join("lobby", 2)
	r.Leave("lobby", 3)

	assert.Equal(t, []ConnectionID{1, 3}, snapshot)
	assert.Equal(t, []ConnectionID{1, 2}, r.Members("lobby"))
}

// Random join/leave sequences checked against a trivially correct model.
func TestRooms_MatchesModel(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	rooms := []string{"a", "b", "c"}

	r := NewRooms()
	model := map[string]map[ConnectionID]bool{}

	for step := 0; step < 2000; step++ {
		room := rooms[rng.IntN(len(rooms))]
		id := ConnectionID(rng.IntN(10))
		if rng.IntN(2) == 0 {
			r.Join(room, id)
			if model[room] == nil {
				model[room] = map[ConnectionID]bool{}
			}
			model[room][id] = true
		} else {
			r.Leave(room, id)
			delete(model[room], id)
		}

		for _, name := range rooms {
			want := make([]ConnectionID, 0)
			for id := range model[name] {
				want = append(want, id)
			}
			slices.Sort(want)
			got := r.Members(name)
			require.Equal(t, want, got, "step %d room %s", step, name)
			require.Len(t, got, len(slices.Compact(slices.Clone(got))), "duplicate id in %s", name)
		}
	}
}
