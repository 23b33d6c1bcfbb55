package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderOrdersColumnsByHeader(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Course Code", "Average"},
		Rows: []map[string]string{
			{"Average": "91.50", "Course Code": "CS101"},
			{"Course Code": "MA201"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Course Code,Average\nCS101,91.50\nMA201,\n", string(data))
}

func TestCSVRenderQuotesEmbeddedCommas(t *testing.T) {
	exporter := NewCSVExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Course"},
		Rows:    []map[string]string{{"Course": "Databases, Advanced"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "Course\n\"Databases, Advanced\"\n", string(data))
}

func TestCSVRenderRejectsEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.Render(Dataset{
		Headers: []string{"Course", "Average"},
		Rows:    []map[string]string{{"Course": "CS101", "Average": "88.00"}},
	}, "Transcript: Ada Lovelace")

	require.NoError(t, err)
	assert.True(t, len(data) > 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}
