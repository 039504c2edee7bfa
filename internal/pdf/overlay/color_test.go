package overlay

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "rgba(255, 255, 0, 0.5)", want: Color{R: 255, G: 255, B: 0, A: 0.5}},
		{in: "rgb(10,20,30)", want: Color{R: 10, G: 20, B: 30, A: 1}},
		{in: "  RGBA(0, 128, 255, 1) ", want: Color{R: 0, G: 128, B: 255, A: 1}},
		{in: "#ff8000", want: Color{R: 255, G: 128, B: 0, A: 1}},
		{in: "rgba(256, 0, 0, 1)", wantErr: true},
		{in: "rgba(0, 0, 0, 2)", wantErr: true},
		{in: EraserColor, wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColor_JSON(t *testing.T) {
	raw, err := json.Marshal(DefaultHighlight)
	require.NoError(t, err)
	assert.JSONEq(t, `"rgba(255, 255, 0, 0.5)"`, string(raw))

	var c Color
	require.NoError(t, json.Unmarshal(raw, &c))
	assert.Equal(t, DefaultHighlight, c)

	assert.Error(t, json.Unmarshal([]byte(`"not a color"`), &c))
}

func TestColor_Conversions(t *testing.T) {
	r, g, b := Color{R: 255, G: 0, B: 51}.Unit()
	assert.Equal(t, 1.0, r)
	assert.Equal(t, 0.0, g)
	assert.InDelta(t, 0.2, b, 1e-9)

	assert.Equal(t, color.NRGBA{R: 255, G: 255, A: 128}, DefaultHighlight.NRGBA())
}
