package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Name", "Remaining"},
		Rows: []map[string]string{
			{"Name": "Набор A", "Remaining": "80"},
			{"Name": "Набор B", "Remaining": "0"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Remaining", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Набор A")
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Parameter", "Value"},
		Rows: []map[string]string{
			{"Parameter": "Глюкоза", "Value": "5.1"},
		},
	}, "История анализов")
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
