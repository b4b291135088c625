package lighting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVector_StringFormat(t *testing.T) {
	v := Vector{0, 10, 20, 30, 40, 100}
	require.Equal(t, "[0, 10, 20, 30, 40, 100]", v.String())
}

func TestVector_JSONRoundTrip(t *testing.T) {
	v := Vector{1, 2, 3, 4, 5, 6}

	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, "[1,2,3,4,5,6]", string(data))

	var back Vector
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, v.Equal(back))
}

func TestVector_UnmarshalRejectsWrongLength(t *testing.T) {
	var v Vector
	require.Error(t, json.Unmarshal([]byte("[1,2,3]"), &v))
	require.Error(t, json.Unmarshal([]byte("[1,2,3,4,5,6,7]"), &v))
	require.Error(t, json.Unmarshal([]byte(`"not an array"`), &v))
}

func TestSchedule_JSONFieldNames(t *testing.T) {
	s := Schedule{
		ID:            "1700000000000",
		Title:         "Night cycle",
		Start:         2230,
		End:           630,
		ProfileName:   "moonlight",
		ProfileValues: Vector{10, 0, 0, 20, 0, 5},
		Enabled:       true,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "title", "start", "end", "profile_name", "profile_values", "enabled"} {
		require.Contains(t, raw, key)
	}
}
