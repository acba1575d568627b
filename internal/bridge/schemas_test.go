package bridge

import (
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	cases := []struct {
		name   string
		schema *jsonschema.Schema
		raw    string
		ok     bool
	}{
		{
			name:   "observation",
			schema: observationSchema,
			raw:    `{"type":"OBSERVATION","rows":[["path","tree"],["path","path"]]}`,
			ok:     true,
		},
		{
			name:   "observation empty rows",
			schema: observationSchema,
			raw:    `{"type":"OBSERVATION","rows":[]}`,
			ok:     false,
		},
		{
			name:   "state",
			schema: stateSchema,
			raw:    `{"type":"STATE_REPORT","area_name":"pallet town","map_group":3,"map_number":0,"x":5,"y":7,"facing":"Up","mode":"overworld"}`,
			ok:     true,
		},
		{
			name:   "state bad facing",
			schema: stateSchema,
			raw:    `{"type":"STATE_REPORT","area_name":"x","map_group":3,"map_number":0,"x":5,"y":7,"facing":"Northeast","mode":"overworld"}`,
			ok:     false,
		},
		{
			name:   "state missing mode",
			schema: stateSchema,
			raw:    `{"type":"STATE_REPORT","area_name":"x","map_group":3,"map_number":0,"x":5,"y":7,"facing":"Up"}`,
			ok:     false,
		},
		{
			name:   "ack",
			schema: ackSchema,
			raw:    `{"type":"ACK","ok":true}`,
			ok:     true,
		},
		{
			name:   "ack missing ok",
			schema: ackSchema,
			raw:    `{"type":"ACK"}`,
			ok:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateFrame(tc.schema, []byte(tc.raw))
			if tc.ok && err != nil {
				t.Errorf("sample rejected: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("bad sample accepted")
			}
		})
	}
}
