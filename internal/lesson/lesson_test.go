package lesson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	req := Request{Topic: "les volcans"}
	assert.NoError(t, req.Validate())

	empty := Request{}
	assert.ErrorIs(t, empty.Validate(), ErrEmptyTopic)
}

func TestEnumValidity(t *testing.T) {
	t.Parallel()

	assert.True(t, GenreEducational.Valid())
	assert.False(t, Genre("horror").Valid())
	assert.NotEmpty(t, GenreFolktale.Label())

	assert.True(t, AgeTeen.Valid())
	assert.False(t, AgeBand("elder").Valid())

	assert.True(t, StyleWatercolor.Valid())
	assert.False(t, VisualStyle("cubist").Valid())

	assert.True(t, MediaVideo.Valid())
	assert.False(t, MediaKind("hologram").Valid())
}

func TestHistoryItemJSONShape(t *testing.T) {
	t.Parallel()

	item := HistoryItem{
		Artifact: Artifact{
			Title:          "T",
			Content:        "C",
			ImageRef:       "data:image/png;base64,AAAA",
			VideoSimulated: true,
			NextStep:       "Et après ?",
		},
		ID:    "id-1",
		Topic: "les volcans",
		Media: MediaVideo,
		Genre: GenreEducational,
	}

	data, err := json.Marshal(item)
	require.NoError(t, err)

	// Field names follow the persisted artifact format.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "imageUrl")
	assert.Contains(t, raw, "originalTopic")
	assert.Contains(t, raw, "isVideoSimulated")
	assert.Contains(t, raw, "nextStepSuggestion")
	assert.NotContains(t, raw, "ImageRef")

	var back HistoryItem
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, item.ImageRef, back.ImageRef)
}
