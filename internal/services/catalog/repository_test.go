package catalog

import (
	"context"
	"errors"
	"net"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/killallgit/songscraper/internal/database"
	"github.com/killallgit/songscraper/internal/models"
	apperrors "github.com/killallgit/songscraper/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	conn, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, conn.Migrate())
	t.Cleanup(func() { conn.Close() })
	return NewRepository(conn.DB), conn.DB
}

// newMockDb creates a gorm DB backed by go-sqlmock for failure injection
func newMockDb(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db, mock
}

func TestRepository_InsertAndExists(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.SongExists(ctx, "Calm", "Ann")
	require.NoError(t, err)
	assert.False(t, exists)

	id, err := store.InsertSong(ctx, &models.Song{Title: "Calm", OwnerName: "Ann", Duration: "2:10"})
	require.NoError(t, err)
	assert.NotZero(t, id)

	exists, err = store.SongExists(ctx, "Calm", "Ann")
	require.NoError(t, err)
	assert.True(t, exists)

	// Same title, different owner is a different song
	exists, err = store.SongExists(ctx, "Calm", "Bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_InsertSong_Duplicate(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := store.InsertSong(ctx, &models.Song{Title: "Calm", OwnerName: "Ann"})
	require.NoError(t, err)

	_, err = store.InsertSong(ctx, &models.Song{Title: "Calm", OwnerName: "Ann"})
	assert.ErrorIs(t, err, ErrDuplicateSong)
}

func TestRepository_InsertSong_Defaults(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	song := &models.Song{Title: "Rain Walk!"}
	_, err := store.InsertSong(ctx, song)
	require.NoError(t, err)

	var stored models.Song
	require.NoError(t, db.First(&stored, song.ID).Error)
	assert.Equal(t, models.UnknownAuthor, stored.OwnerName)
	assert.Equal(t, "Rain_Walk_.mp3", stored.AudioFilename)
	assert.Len(t, stored.UUID, 36)
}

func TestRepository_UpsertTerm(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertTerm(ctx, Genre, "Ambient")
	require.NoError(t, err)
	second, err := store.UpsertTerm(ctx, Genre, "Ambient")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Vocabularies are independent
	moodID, err := store.UpsertTerm(ctx, Mood, "Ambient")
	require.NoError(t, err)
	assert.NotZero(t, moodID)

	var count int64
	require.NoError(t, db.Model(&models.Genre{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_UpsertTerm_Sentinel(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", models.UnknownTerm} {
		_, err := store.UpsertTerm(ctx, Theme, name)
		assert.ErrorIs(t, err, ErrSentinelTerm, "name %q", name)
	}

	var count int64
	require.NoError(t, db.Model(&models.Theme{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepository_UpsertTerm_Concurrent(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.UpsertTerm(ctx, Mood, "Calm")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestRepository_LinkSongTerm_Idempotent(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	songID, err := store.InsertSong(ctx, &models.Song{Title: "Calm", OwnerName: "Ann"})
	require.NoError(t, err)
	termID, err := store.UpsertTerm(ctx, Theme, "Nature")
	require.NoError(t, err)

	require.NoError(t, store.LinkSongTerm(ctx, Theme, songID, termID))
	require.NoError(t, store.LinkSongTerm(ctx, Theme, songID, termID))

	var count int64
	require.NoError(t, db.Model(&models.SongTheme{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_ListSongs(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	songs, err := store.ListSongs(ctx)
	require.NoError(t, err)
	assert.Empty(t, songs)

	songID, err := store.InsertSong(ctx, &models.Song{Title: "Calm", OwnerName: "Ann"})
	require.NoError(t, err)
	for _, name := range []string{"Piano", "Ambient"} {
		termID, err := store.UpsertTerm(ctx, Genre, name)
		require.NoError(t, err)
		require.NoError(t, store.LinkSongTerm(ctx, Genre, songID, termID))
	}
	moodID, err := store.UpsertTerm(ctx, Mood, "Relaxing")
	require.NoError(t, err)
	require.NoError(t, store.LinkSongTerm(ctx, Mood, songID, moodID))

	songs, err = store.ListSongs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 1)

	song := songs[0]
	assert.Equal(t, "Calm", song.Title)
	require.Len(t, song.Genres, 2)
	assert.Equal(t, "Ambient", song.Genres[0].Name)
	assert.Equal(t, "Piano", song.Genres[1].Name)
	require.Len(t, song.Moods, 1)
	assert.Equal(t, "Relaxing", song.Moods[0].Name)
	assert.Empty(t, song.Themes)
}

func TestRepository_Transaction_Rollback(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.InsertSong(ctx, &models.Song{Title: "Calm", OwnerName: "Ann"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := store.SongExists(ctx, "Calm", "Ann")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_StoreUnavailable(t *testing.T) {
	db, mock := newMockDb(t)
	store := NewRepository(db)

	connErr := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "songs"`)).
		WillReturnError(connErr)

	_, err := store.SongExists(context.Background(), "Calm", "Ann")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeDatabaseConnection))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_QueryFailureIsNotUnavailable(t *testing.T) {
	db, mock := newMockDb(t)
	store := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "songs"`)).
		WillReturnError(errors.New("syntax error"))

	_, err := store.SongExists(context.Background(), "Calm", "Ann")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNamespace_InvalidPanics(t *testing.T) {
	assert.Panics(t, func() { Namespace(0).Terms(models.ExtractionRecord{}) })
	assert.Panics(t, func() { Namespace(42).linkRow(1, 1) })
	assert.Equal(t, "genre", Genre.String())
	assert.Equal(t, []string{"Piano"}, Genre.Terms(models.ExtractionRecord{Genres: []string{"Piano"}}))
}
