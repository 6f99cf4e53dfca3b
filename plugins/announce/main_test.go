package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhrase(t *testing.T) {
	decode := func(s string) payload {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(s), &p))
		return p
	}
	on := config{EveryRep: true}

	assert.Equal(t, "3", phrase("rep", decode(`{"rep":{"index":3,"assessment":{"counted":true,"message":"ok"}}}`), on))
	assert.Equal(t, "bend knees deeper",
		phrase("rep", decode(`{"rep":{"index":0,"assessment":{"counted":false,"message":"bend knees deeper"}}}`), on))
	assert.Empty(t, phrase("rep", decode(`{"rep":{"index":3,"assessment":{"counted":true}}}`), config{}))
	assert.Equal(t, "Set done. 4 of 5. 72 percent.",
		phrase("set", decode(`{"set":{"reps_counted":4,"reps_target":5,"final_percent":72.4}}`), on))
	assert.Empty(t, phrase("frame", payload{}, on))
}
