package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoredSubmissionAcceptsNumericCells(t *testing.T) {
	raw := `[
		{"rowId": 2, "score": 8.5, "feedback": "ดีมาก"},
		{"rowId": 3, "score": null, "feedback": 10},
		{"rowId": 4, "score": "7"}
	]`

	var rows []StoredSubmission
	require.NoError(t, json.Unmarshal([]byte(raw), &rows))
	require.Equal(t, Text("8.5"), rows[0].Score)
	require.Equal(t, "ดีมาก", rows[0].Feedback.String())
	require.Empty(t, rows[1].Score)
	require.Equal(t, Text("10"), rows[1].Feedback)
	require.Equal(t, Text("7"), rows[2].Score)
	require.Empty(t, rows[2].Feedback)

	var bad Text
	require.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestPreviewURL(t *testing.T) {
	require.Equal(t, "data:image/png;base64,AAA", PreviewURL(FilePayload{Type: "image/png", Base64: "AAA"}))
	require.Empty(t, PreviewURL(FilePayload{Type: "application/pdf", Base64: "AAA"}))
	require.Empty(t, PreviewURL(FilePayload{Type: "image/png"}))
}

func TestGradeUpdateAlwaysSendsValues(t *testing.T) {
	raw, err := json.Marshal(GradeUpdate{Action: ActionUpdateGrade, RowID: 5})
	require.NoError(t, err)
	require.JSONEq(t, `{"action":"UPDATE_GRADE","rowId":5,"score":"","feedback":""}`, string(raw))
}
