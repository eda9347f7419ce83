package sqlite

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leafscan/internal/models"
)

func newTestRepo(t *testing.T) *ScanRepository {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewScanRepository(db)
}

func topPreds() []models.Prediction {
	return []models.Prediction{
		{Label: "Tomato_EarlyBlight", Confidence: 0.91},
		{Label: "Tomato_Healthy", Confidence: 0.05},
		{Label: "Potato_LateBlight", Confidence: 0.02},
	}
}

func TestScanRepository_AppendRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	capturedAt := time.Date(2026, 8, 27, 10, 30, 15, 0, time.UTC)

	appended, err := repo.Append(topPreds(), "images/scan_001.jpg", "Tomato", capturedAt)
	require.NoError(t, err)
	require.Greater(t, appended.ID, int64(0))

	recent, err := repo.GetRecent(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	got := recent[0]
	require.Equal(t, appended.ID, got.ID)
	require.Equal(t, topPreds(), got.TopPredictions)
	require.Equal(t, "Tomato", got.Crop)
	require.Equal(t, "images/scan_001.jpg", got.ImageRef)
	require.True(t, got.CapturedAt.Equal(capturedAt.Truncate(time.Second)))
}

func TestScanRepository_IDsMonotonicallyIncrease(t *testing.T) {
	repo := newTestRepo(t)

	var last int64
	for i := 0; i < 5; i++ {
		rec, err := repo.Append(topPreds(), "images/a.jpg", "Tomato", time.Now())
		require.NoError(t, err)
		require.Greater(t, rec.ID, last)
		last = rec.ID
	}
}

func TestScanRepository_GetRecentOrderingAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := repo.Append(topPreds(), "images/a.jpg", "Tomato", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	recent, err := repo.GetRecent(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for i := 1; i < len(recent); i++ {
		require.False(t, recent[i].CapturedAt.After(recent[i-1].CapturedAt))
	}
	require.True(t, recent[0].CapturedAt.Equal(base.Add(3*time.Minute)))
}

func TestScanRepository_GetByID(t *testing.T) {
	repo := newTestRepo(t)

	appended, err := repo.Append(topPreds(), "a.jpg", "Tomato", time.Now())
	require.NoError(t, err)

	got, err := repo.GetByID(appended.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, appended.ID, got.ID)
	require.Equal(t, "a.jpg", got.ImageRef)

	missing, err := repo.GetByID(appended.ID + 100)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestScanRepository_GetByCrop(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	_, err := repo.Append(topPreds(), "a.jpg", "Tomato", now)
	require.NoError(t, err)
	_, err = repo.Append([]models.Prediction{{Label: "Potato_Healthy", Confidence: 0.97}}, "b.jpg", "Potato", now)
	require.NoError(t, err)

	tomatoes, err := repo.GetByCrop("Tomato")
	require.NoError(t, err)
	require.Len(t, tomatoes, 1)
	require.Equal(t, "Tomato", tomatoes[0].Crop)

	none, err := repo.GetByCrop("Corn")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestScanRepository_Search(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	_, err := repo.Append([]models.Prediction{{Label: "Tomato_EarlyBlight", Confidence: 0.9}}, "a.jpg", "Tomato", now)
	require.NoError(t, err)
	_, err = repo.Append([]models.Prediction{{Label: "Potato_Healthy", Confidence: 0.95}}, "b.jpg", "Potato", now)
	require.NoError(t, err)

	// Case-insensitive disease-name match.
	hits, err := repo.Search("blight")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Tomato", hits[0].Crop)

	// Crop match.
	hits, err = repo.Search("pota")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Potato", hits[0].Crop)

	hits, err = repo.Search("rust")
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestScanRepository_DeleteAndClear(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	first, err := repo.Append(topPreds(), "a.jpg", "Tomato", now)
	require.NoError(t, err)
	_, err = repo.Append(topPreds(), "b.jpg", "Tomato", now)
	require.NoError(t, err)

	removed, err := repo.Delete(first.ID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.Delete(first.ID)
	require.NoError(t, err)
	require.False(t, removed, "second delete of the same id finds nothing")

	cleared, err := repo.ClearAll()
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)

	count, err := repo.Count()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestScanRepository_ComputeStatistics(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	blight := []models.Prediction{{Label: "Tomato_EarlyBlight", Confidence: 0.9}}
	healthy := []models.Prediction{{Label: "Potato_Healthy", Confidence: 0.95}}

	for i := 0; i < 3; i++ {
		_, err := repo.Append(blight, "a.jpg", "Tomato", now)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := repo.Append(healthy, "b.jpg", "Potato", now)
		require.NoError(t, err)
	}

	stats, err := repo.ComputeStatistics()
	require.NoError(t, err)
	require.Equal(t, 5, stats.Total)
	require.Equal(t, map[string]int{"Tomato": 3, "Potato": 2}, stats.ByCrop)
	require.Equal(t, map[string]int{"Tomato_EarlyBlight": 3, "Potato_Healthy": 2}, stats.ByLabel)
	require.Equal(t, 2, stats.Healthy)
	require.Equal(t, 3, stats.Diseased)
	require.Equal(t, stats.Total, stats.Healthy+stats.Diseased)

	sum := 0
	for _, c := range stats.ByCrop {
		sum += c
	}
	require.Equal(t, stats.Total, sum)
}

func TestScanRepository_StatsBoundToTopFiveLabels(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	labels := []string{
		"Tomato_EarlyBlight", "Tomato_LateBlight", "Potato_Healthy",
		"Pepper_BacterialSpot", "Corn_CommonRust", "Grape_BlackRot", "Apple_Scab",
	}
	for i, label := range labels {
		// Distinct counts so the cutoff is deterministic.
		for j := 0; j <= i; j++ {
			p := models.Prediction{Label: label, Confidence: 0.8}
			_, err := repo.Append([]models.Prediction{p}, "x.jpg", p.Crop(), now)
			require.NoError(t, err)
		}
	}

	stats, err := repo.ComputeStatistics()
	require.NoError(t, err)
	require.Len(t, stats.ByLabel, 5)
	require.NotContains(t, stats.ByLabel, "Tomato_EarlyBlight")
	require.NotContains(t, stats.ByLabel, "Tomato_LateBlight")
	require.Equal(t, 7, stats.ByLabel["Apple_Scab"])
}

func TestScanRepository_ConcurrentAppendsAndReads(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.Append(topPreds(), "a.jpg", "Tomato", now)
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			records, err := repo.GetRecent(10)
			require.NoError(t, err)
			// A concurrent read must never observe a partial row.
			for _, rec := range records {
				require.NotEmpty(t, rec.TopPredictions)
			}
		}()
	}
	wg.Wait()

	count, err := repo.Count()
	require.NoError(t, err)
	require.Equal(t, 8, count)
}
