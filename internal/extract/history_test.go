package extract

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-forecast/internal/models"
)

func TestHistoryExtractorParsesRow(t *testing.T) {
	doc := historyPage("db_h_race_results",
		historyRow("2025/06/01", "2東京12", "東京優駿(GI)", "18", "2.1", "1", "1", "芝2400"),
	)

	runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
	require.Len(t, runs, 1)

	run := runs[0]
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), run.Date)
	assert.Equal(t, "2東京12", run.Venue)
	assert.Equal(t, "東京優駿(GI)", run.RaceName)
	assert.Equal(t, 18, run.FieldSize)
	assert.Equal(t, 2.1, run.Odds)
	assert.Equal(t, 1, run.Popularity)
	assert.Equal(t, 1, run.Finish)
	assert.Equal(t, 2400, run.Distance)
	assert.Equal(t, models.SurfaceTurf, run.Surface)
}

func TestHistoryExtractorExcludesNonNumericFinish(t *testing.T) {
	doc := historyPage("db_h_race_results",
		historyRow("2025/05/04", "2東京4", "青葉賞", "16", "3.4", "2", "中止", "芝2400"),
		historyRow("2025/04/13", "3中山6", "皐月賞", "18", "5.0", "3", "2", "芝2000"),
		historyRow("2025/03/02", "2中山2", "弥生賞", "10", "1.9", "1", "除外", "芝2000"),
		historyRow("2025/02/02", "1東京4", "共同通信杯", "9", "4.0", "2", "1(降)", "芝1800"),
	)

	runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
	require.Len(t, runs, 1)
	assert.Equal(t, "皐月賞", runs[0].RaceName)
	assert.Equal(t, 2, runs[0].Finish)
}

func TestHistoryExtractorCapsAtTwenty(t *testing.T) {
	rows := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		rows = append(rows, historyRow("2024/01/01", "1中山1", fmt.Sprintf("race-%d", i), "12", "10.0", "5", "4", "ダ1800"))
	}

	runs := NewHistoryExtractor().Extract(strings.NewReader(historyPage("db_h_race_results", rows...)))
	require.Len(t, runs, models.MaxHistoryRuns)
	assert.Equal(t, "race-0", runs[0].RaceName, "most recent first")
	assert.Equal(t, models.SurfaceDirt, runs[0].Surface)
}

func TestHistoryExtractorMaxRunsOption(t *testing.T) {
	rows := []string{
		historyRow("2024/01/01", "a", "r1", "12", "1.0", "1", "1", "芝1200"),
		historyRow("2023/12/01", "a", "r2", "12", "1.0", "1", "1", "芝1200"),
	}
	runs := NewHistoryExtractor(WithMaxRuns(1)).Extract(strings.NewReader(historyPage("nk_tb_common", rows...)))
	assert.Len(t, runs, 1)
}

func TestHistoryExtractorFallbackTable(t *testing.T) {
	doc := historyPage("nk_tb_common",
		historyRow("2025/01/05", "1中山1", "中山金杯", "16", "8.2", "4", "3", "障3000"),
	)

	runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
	require.Len(t, runs, 1)
	assert.Equal(t, 3000, runs[0].Distance)
	assert.Equal(t, models.SurfaceTurf, runs[0].Surface)
}

func TestHistoryExtractorPrefersPrimaryTable(t *testing.T) {
	doc := `<html><body>` +
		`<table class="nk_tb_common"><tbody>` + historyRow("2020/01/01", "x", "fallback", "8", "1.0", "1", "1", "芝1000") + `</tbody></table>` +
		`<table class="db_h_race_results"><tbody>` + historyRow("2021/01/01", "x", "primary", "8", "1.0", "1", "1", "芝1000") + `</tbody></table>` +
		`</body></html>`

	runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
	require.Len(t, runs, 1)
	assert.Equal(t, "primary", runs[0].RaceName)
}

func TestHistoryExtractorDegradesBadFields(t *testing.T) {
	doc := historyPage("db_h_race_results",
		historyRow("unknown", "1京都1", "未勝利", "--", "abc", "?", "5", "不明"),
	)

	runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
	require.Len(t, runs, 1)

	run := runs[0]
	assert.True(t, run.Date.IsZero())
	assert.Equal(t, 0, run.FieldSize)
	assert.Equal(t, 0.0, run.Odds)
	assert.Equal(t, 0, run.Popularity)
	assert.Equal(t, 0, run.Distance)
	assert.Equal(t, models.SurfaceUnknown, run.Surface)
	assert.Equal(t, 5, run.Finish)
}

func TestHistoryExtractorSkipsShortRows(t *testing.T) {
	doc := historyPage("db_h_race_results",
		`<tr><td>2025/01/01</td><td>summary</td><td>1</td></tr>`,
		historyRow("2025/01/01", "1中山1", "ok", "8", "2.0", "1", "1", "芝1600"),
	)

	runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
	require.Len(t, runs, 1)
	assert.Equal(t, "ok", runs[0].RaceName)
}

func TestHistoryExtractorNoTable(t *testing.T) {
	for _, doc := range []string{"", "<html><body><p>no data</p></body></html>", "<table class=\"other\"></table>"} {
		runs := NewHistoryExtractor().Extract(strings.NewReader(doc))
		assert.NotNil(t, runs)
		assert.Empty(t, runs)
	}
	assert.Empty(t, NewHistoryExtractor().Extract(nil))
}
