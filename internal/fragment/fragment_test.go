package fragment

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "bold",
			input:    "You have **3 tickets**.",
			contains: []string{"<strong>3 tickets</strong>"},
		},
		{
			name:     "list",
			input:    "- one\n- two",
			contains: []string{"<ul>", "<li>one</li>"},
		},
		{
			name:     "raw html dropped",
			input:    "hi <script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := string(RenderMarkdown(tt.input))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, ChatMessage, Assistant("Hello **alice**"), nil))
	assert.Contains(t, buf.String(), "<strong>alice</strong>")
	assert.Contains(t, buf.String(), "justify-start")

	buf.Reset()
	require.NoError(t, r.Render(&buf, Success, MessageData{Message: "Chat cleared"}, nil))
	assert.Contains(t, buf.String(), "Chat cleared")
	assert.Contains(t, buf.String(), "bg-green-50")

	buf.Reset()
	require.NoError(t, r.Render(&buf, Error, MessageData{Message: "<b>boom</b>"}, nil))
	assert.Contains(t, buf.String(), "&lt;b&gt;boom&lt;/b&gt;")

	buf.Reset()
	assert.Error(t, r.Render(&buf, "missing", nil, nil))
}
