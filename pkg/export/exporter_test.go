package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Task Status",
		Headers: []string{"Task", "Student", "Status"},
		Rows: []map[string]string{
			{"Task": "Fractions", "Student": "Ana", "Status": "graded"},
			{"Task": "Optics, part 1", "Student": "Budi", "Status": "pending"},
		},
		Notes: []string{"Submission rate: 50%"},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Task,Student,Status\nFractions,Ana,graded\n\"Optics, part 1\",Budi,pending\n", string(out))
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{
		Headers: []string{"Task", "Note"},
		Rows:    []map[string]string{{"Task": "=HYPERLINK(\"x\")", "Note": "-5 points"}, {"Task": "Plain", "Note": ""}},
	}
	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Task,Note\n\"'=HYPERLINK(\"\"x\"\")\",'-5 points\nPlain,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Dataset{Headers: []string{"A", "A"}})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestPDFExporterWideTable(t *testing.T) {
	data := Dataset{Headers: []string{"A", "B", "C", "D", "E", "F", "G"}}
	for i := 0; i < 80; i++ {
		data.Rows = append(data.Rows, map[string]string{"A": "a very long value that will certainly be truncated in the cell"})
	}
	out, err := NewPDFExporter().Render(data)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
